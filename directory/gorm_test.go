package directory

import (
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newDryRunDB opens a postgres dialector that never connects; statements
// are only rendered.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 port=1 user=goadmin dbname=goadmin sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry run db: %v", err)
	}
	return db
}

func TestAuthoritiesQueryShape(t *testing.T) {
	db := newDryRunDB(t)
	g, err := NewGorm(db)
	if err != nil {
		t.Fatalf("NewGorm: %v", err)
	}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []string
		return g.authoritiesStmt(tx, "u-1").Scan(&out)
	})

	for _, want := range []string{
		"UNION ALL",
		"'ROLE_' || r.role_name",
		"p.perm_name IS NOT NULL",
		"u.user_id = 'u-1'",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("expected %q in query:\n%s", want, sql)
		}
	}
}

func TestFindPrincipalQueryFiltersDeleted(t *testing.T) {
	db := newDryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var u SysUser
		return tx.Where("user_name = ? AND deleted = 0", "alice").First(&u)
	})

	for _, want := range []string{`"sys_user"`, "user_name = 'alice'", "deleted = 0", "LIMIT 1"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("expected %q in query:\n%s", want, sql)
		}
	}
}

func TestNewGormRejectsNil(t *testing.T) {
	if _, err := NewGorm(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestModelsTableNames(t *testing.T) {
	want := map[string]bool{
		"sys_role": true, "sys_perm": true, "sys_user": true,
		"sys_user_role": true, "sys_role_perm": true,
	}
	for _, m := range Models() {
		tn, ok := m.(interface{ TableName() string })
		if !ok {
			t.Fatalf("%T has no TableName", m)
		}
		if !want[tn.TableName()] {
			t.Fatalf("unexpected table %q", tn.TableName())
		}
		delete(want, tn.TableName())
	}
	if len(want) != 0 {
		t.Fatalf("missing tables %v", want)
	}
}
