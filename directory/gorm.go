package directory

import (
	"context"
	"errors"
	"fmt"

	goAdmin "github.com/MrEthical07/goAdmin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const authoritiesQuery = `SELECT p.perm_name AS authority
FROM sys_user u
LEFT JOIN sys_user_role ur ON u.user_id = ur.user_id
LEFT JOIN sys_role r ON ur.role_id = r.role_id
LEFT JOIN sys_role_perm rp ON r.role_id = rp.role_id
LEFT JOIN sys_perm p ON rp.perm_id = p.perm_id
WHERE u.user_id = ? AND p.perm_name IS NOT NULL
UNION ALL
SELECT 'ROLE_' || r.role_name AS authority
FROM sys_user u
LEFT JOIN sys_user_role ur ON u.user_id = ur.user_id
LEFT JOIN sys_role r ON ur.role_id = r.role_id
WHERE u.user_id = ? AND r.role_name IS NOT NULL`

var _ goAdmin.Directory = (*Gorm)(nil)

// Gorm is a goAdmin.Directory backed by a relational database.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps an open gorm handle.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if db == nil {
		return nil, errors.New("directory: nil gorm db")
	}
	return &Gorm{db: db}, nil
}

// OpenPostgres opens dsn with the postgres driver. Gorm's own logger is
// silenced; query failures surface as returned errors.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the directory tables.
func (g *Gorm) Migrate(ctx context.Context) error {
	for _, m := range Models() {
		if err := g.db.WithContext(ctx).AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	return nil
}

// FindPrincipalByUsername implements goAdmin.Directory.
func (g *Gorm) FindPrincipalByUsername(ctx context.Context, username string) (goAdmin.Principal, error) {
	var u SysUser
	err := g.db.WithContext(ctx).
		Where("user_name = ? AND deleted = 0", username).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return goAdmin.Principal{}, goAdmin.ErrPrincipalNotFound
		}
		return goAdmin.Principal{}, fmt.Errorf("find user %q: %w", username, err)
	}
	return goAdmin.Principal{
		UserID:       u.UserID,
		Username:     u.UserName,
		Email:        u.Email,
		PasswordHash: u.Password,
	}, nil
}

// LoadAuthorities implements goAdmin.Directory.
func (g *Gorm) LoadAuthorities(ctx context.Context, userID string) ([]string, error) {
	var authorities []string
	if err := g.authoritiesStmt(g.db.WithContext(ctx), userID).Scan(&authorities).Error; err != nil {
		return nil, fmt.Errorf("load authorities for %q: %w", userID, err)
	}
	return authorities, nil
}

// CreateUser inserts a user and links it to the named roles, creating
// missing roles. It runs in one transaction.
func (g *Gorm) CreateUser(ctx context.Context, user SysUser, roles ...string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user %q: %w", user.UserName, err)
		}
		for _, name := range roles {
			role := SysRole{RoleID: "role-" + name, RoleName: name}
			if err := tx.Where(SysRole{RoleName: name}).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("ensure role %q: %w", name, err)
			}
			link := SysUserRole{UserID: user.UserID, RoleID: role.RoleID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("link role %q: %w", name, err)
			}
		}
		return nil
	})
}

func (g *Gorm) authoritiesStmt(db *gorm.DB, userID string) *gorm.DB {
	return db.Raw(authoritiesQuery, userID, userID)
}
