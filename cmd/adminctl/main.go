// Command adminctl is the operator tool for goAdmin deployments.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/password"
	"github.com/MrEthical07/goAdmin/session"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

const usage = `Usage: adminctl <command> [flags]

Commands:
  hash-password   hash a password for the sys_user table
  issue           write a session and print its access token
  revoke          delete a user's session
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "hash-password":
		return hashPassword(args[1:], stdin, stdout)
	case "issue":
		return issue(ctx, args[1:], stdout)
	case "revoke":
		return revoke(ctx, args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func hashPassword(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		plain string
		algo  string
		cost  int
	)
	flagSet := pflag.NewFlagSet("hash-password", pflag.ContinueOnError)
	flagSet.StringVar(&plain, "password", "", "password to hash; read from stdin when empty")
	flagSet.StringVar(&algo, "algo", "bcrypt", "bcrypt or argon2id")
	flagSet.IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if plain == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		plain = strings.TrimRight(line, "\r\n")
	}
	if plain == "" {
		return errors.New("password is empty")
	}

	var hasher password.Hasher
	switch algo {
	case "bcrypt":
		hasher = password.NewBcrypt(cost)
	case "argon2id":
		a, err := password.NewArgon2(password.DefaultArgon2Config())
		if err != nil {
			return err
		}
		hasher = a
	default:
		return fmt.Errorf("unknown algorithm %q", algo)
	}

	hash, err := hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

// redisFlags are shared by commands that touch the session store.
type redisFlags struct {
	addr     string
	password string
	db       int
	prefix   string
}

func (r *redisFlags) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&r.addr, "redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "redis address")
	flagSet.StringVar(&r.password, "redis-password", os.Getenv("REDIS_PASSWORD"), "redis password")
	flagSet.IntVar(&r.db, "redis-db", 0, "redis database")
	flagSet.StringVar(&r.prefix, "prefix", "user:", "session key prefix")
}

func (r *redisFlags) store() (*session.RedisStore, func()) {
	rdb := redis.NewClient(&redis.Options{Addr: r.addr, Password: r.password, DB: r.db})
	return session.NewRedisStore(rdb, r.prefix), func() { _ = rdb.Close() }
}

func issue(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		rf          redisFlags
		userID      string
		username    string
		authorities []string
		secret      string
		issuer      string
		lifetime    time.Duration
		sessionTTL  time.Duration
	)
	flagSet := pflag.NewFlagSet("issue", pflag.ContinueOnError)
	rf.addFlags(flagSet)
	flagSet.StringVar(&userID, "user", "", "user id (token subject)")
	flagSet.StringVar(&username, "username", "", "username stored in the session")
	flagSet.StringSliceVar(&authorities, "authority", nil, "authority to grant; repeatable")
	flagSet.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
	flagSet.StringVar(&issuer, "issuer", jwt.DefaultIssuer, "iss claim")
	flagSet.DurationVar(&lifetime, "lifetime", time.Hour, "access token lifetime")
	flagSet.DurationVar(&sessionTTL, "session-ttl", 30*24*time.Hour, "session TTL")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if userID == "" {
		return errors.New("--user is required")
	}
	if username == "" {
		username = userID
	}

	mgr, err := jwt.NewManager(jwt.Config{Secret: []byte(secret), Issuer: issuer})
	if err != nil {
		return err
	}
	token, err := mgr.Issue(userID, lifetime)
	if err != nil {
		return err
	}

	store, closeStore := rf.store()
	defer closeStore()

	now := time.Now().UnixMilli()
	sess := &session.Session{
		UserID:      userID,
		Username:    username,
		Authorities: authorities,
		Fingerprint: token.TokenID,
		CreatedAt:   now,
		RenewedAt:   now,
	}
	if err := store.Save(ctx, sess, sessionTTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintln(stdout, token.Value)
	return nil
}

func revoke(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		rf     redisFlags
		userID string
	)
	flagSet := pflag.NewFlagSet("revoke", pflag.ContinueOnError)
	rf.addFlags(flagSet)
	flagSet.StringVar(&userID, "user", "", "user id whose session to delete")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if userID == "" {
		return errors.New("--user is required")
	}

	store, closeStore := rf.store()
	defer closeStore()

	if err := store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	fmt.Fprintf(stdout, "revoked session of %s\n", userID)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
