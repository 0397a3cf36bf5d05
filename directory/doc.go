// Package directory provides goAdmin.Directory implementations.
//
// [Gorm] reads principals from the sys_user table and derives authorities
// from sys_user_role, sys_role, sys_role_perm and sys_perm: every
// permission name granted through a role, plus every role name prefixed
// with ROLE_. [Memory] holds principals in process for tests and demos.
package directory
