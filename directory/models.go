package directory

import "time"

// SysUser is a row of sys_user. Deleted is a soft-delete flag; rows with
// Deleted != 0 are invisible to lookups.
type SysUser struct {
	UserID    string `gorm:"column:user_id;primaryKey;size:64"`
	UserName  string `gorm:"column:user_name;size:64;not null;uniqueIndex"`
	Password  string `gorm:"column:password;size:255;not null"`
	Email     string `gorm:"column:email;size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string `gorm:"column:created_by;size:64"`
	UpdatedBy string `gorm:"column:updated_by;size:64"`
	Deleted   int    `gorm:"column:deleted;not null;default:0"`
}

func (SysUser) TableName() string { return "sys_user" }

type SysRole struct {
	RoleID   string `gorm:"column:role_id;primaryKey;size:64"`
	RoleName string `gorm:"column:role_name;size:64;not null;uniqueIndex"`
}

func (SysRole) TableName() string { return "sys_role" }

type SysPerm struct {
	PermID   string `gorm:"column:perm_id;primaryKey;size:64"`
	PermName string `gorm:"column:perm_name;size:128;not null;uniqueIndex"`
}

func (SysPerm) TableName() string { return "sys_perm" }

type SysUserRole struct {
	UserID string `gorm:"column:user_id;primaryKey;size:64"`
	RoleID string `gorm:"column:role_id;primaryKey;size:64"`
}

func (SysUserRole) TableName() string { return "sys_user_role" }

type SysRolePerm struct {
	RoleID string `gorm:"column:role_id;primaryKey;size:64"`
	PermID string `gorm:"column:perm_id;primaryKey;size:64"`
}

func (SysRolePerm) TableName() string { return "sys_role_perm" }

// Models lists every table the directory reads, in migration order.
func Models() []any {
	return []any{&SysRole{}, &SysPerm{}, &SysUser{}, &SysUserRole{}, &SysRolePerm{}}
}
