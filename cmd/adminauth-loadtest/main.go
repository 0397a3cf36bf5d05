package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goAdmin/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

type sessionState struct {
	userID      string
	fingerprint string
	mu          sync.Mutex
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		sessions    int
		concurrency int
		ops         int
		racers      int
		races       int
		redisAddr   string
		prefix      string
	)

	flagSet := pflag.NewFlagSet("adminauth-loadtest", pflag.ContinueOnError)
	flagSet.IntVar(&sessions, "sessions", 100000, "number of sessions to seed")
	flagSet.IntVar(&concurrency, "concurrency", 256, "number of concurrent workers")
	flagSet.IntVar(&ops, "ops", 200000, "operations per phase (lookup + renew)")
	flagSet.IntVar(&racers, "racers", 16, "goroutines renewing the same token in the race phase")
	flagSet.IntVar(&races, "races", 1000, "number of single-use races to run")
	flagSet.StringVar(&redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	flagSet.StringVar(&prefix, "prefix", "user:", "session key prefix")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if sessions <= 0 || concurrency <= 0 || ops <= 0 || racers <= 1 || races < 0 {
		return fmt.Errorf("sessions, concurrency and ops must be > 0, racers > 1")
	}

	ctx := context.Background()

	client, cleanup, err := connect(redisAddr)
	if err != nil {
		return err
	}
	defer cleanup()

	store := session.NewRedisStore(client, prefix)

	states := make([]sessionState, sessions)
	fmt.Printf("seeding %d sessions...\n", sessions)
	startSeed := time.Now()
	for i := 0; i < sessions; i++ {
		userID := fmt.Sprintf("u-%d", i)
		fp := fmt.Sprintf("jti-%d-0", i)
		states[i] = sessionState{userID: userID, fingerprint: fp}
		if err := store.Save(ctx, buildSession(userID, fp), 24*time.Hour); err != nil {
			return fmt.Errorf("save failed: %w", err)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	lookupStats := runLookupPhase(ctx, store, states, ops, concurrency)
	renewStats := runRenewPhase(ctx, store, states, ops, concurrency)
	violations := runRacePhase(ctx, store, states, races, racers)

	fmt.Println("---- results ----")
	printStats("lookup", lookupStats)
	printStats("renew", renewStats)
	fmt.Printf("race: runs=%d racers=%d single-use violations=%d\n", races, racers, violations)
	if violations > 0 {
		return fmt.Errorf("%d races renewed the same token more than once", violations)
	}
	return nil
}

func runLookupPhase(ctx context.Context, store *session.RedisStore, states []sessionState, ops, concurrency int) phaseStats {
	return drive(ops, concurrency, func(r *rand.Rand, _ int) error {
		_, err := store.Get(ctx, states[r.IntN(len(states))].userID)
		return err
	})
}

// runRenewPhase rotates random sessions forward. Each session's current
// fingerprint is tracked locally so every rotation should win.
func runRenewPhase(ctx context.Context, store *session.RedisStore, states []sessionState, ops, concurrency int) phaseStats {
	return drive(ops, concurrency, func(r *rand.Rand, op int) error {
		idx := r.IntN(len(states))
		state := &states[idx]
		state.mu.Lock()
		defer state.mu.Unlock()

		next := fmt.Sprintf("jti-%d-%d", idx, op+1)
		if _, err := store.RotateFingerprint(ctx, state.userID, state.fingerprint, next, time.Now(), 24*time.Hour); err != nil {
			return err
		}
		state.fingerprint = next
		return nil
	})
}

// drive runs ops calls of fn spread over concurrency workers and times
// each call. Workers keep their own samples and merge at the end.
func drive(ops, concurrency int, fn func(r *rand.Rand, op int) error) phaseStats {
	var (
		wg       sync.WaitGroup
		next     atomic.Int64
		failures atomic.Int64
		perWork  = make([][]time.Duration, concurrency)
	)

	start := time.Now()
	for w := range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(w)))
			samples := make([]time.Duration, 0, ops/concurrency+1)
			for {
				op := int(next.Add(1)) - 1
				if op >= ops {
					break
				}
				t0 := time.Now()
				if err := fn(r, op); err != nil {
					failures.Add(1)
				}
				samples = append(samples, time.Since(t0))
			}
			perWork[w] = samples
		}()
	}
	wg.Wait()

	return computeStats(time.Since(start), slices.Concat(perWork...), failures.Load())
}

// runRacePhase lets racers goroutines renew the same fingerprint at once and
// counts runs where more than one of them won.
func runRacePhase(ctx context.Context, store *session.RedisStore, states []sessionState, races, racers int) int {
	violations := 0
	for i := 0; i < races; i++ {
		state := &states[i%len(states)]
		current := state.fingerprint

		var (
			wg      sync.WaitGroup
			winners atomic.Int64
			winner  atomic.Value
			gate    = make(chan struct{})
		)
		for g := 0; g < racers; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				next := fmt.Sprintf("race-%d-%d", i, g)
				<-gate
				if _, err := store.RotateFingerprint(ctx, state.userID, current, next, time.Now(), 24*time.Hour); err == nil {
					winners.Add(1)
					winner.Store(next)
				}
			}(g)
		}
		close(gate)
		wg.Wait()

		if winners.Load() != 1 {
			violations++
		}
		if next, ok := winner.Load().(string); ok {
			state.fingerprint = next
		}
	}
	return violations
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	slices.Sort(samples)
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func buildSession(userID, fingerprint string) *session.Session {
	now := time.Now().UnixMilli()
	return &session.Session{
		UserID:      userID,
		Username:    userID,
		Authorities: []string{"common", "ROLE_USER"},
		Fingerprint: fingerprint,
		CreatedAt:   now,
		RenewedAt:   now,
	}
}

// connect dials addr, falling back to REDIS_ADDR and then to an in-process
// miniredis.
func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}
