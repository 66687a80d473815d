package model

import (
	"time"

	"github.com/google/uuid"
)

// Role: "cashier" | "supervisor" | "admin". Supervisors and admins hold the
// elevated role required to authorize withdrawals and credit overrides.
type Role string

const (
	RoleCashier    Role = "cashier"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// Elevated reports whether the role may authorize withdrawals and credit
// overrides.
func (r Role) Elevated() bool {
	return r == RoleSupervisor || r == RoleAdmin
}

// User is the principal record supplied by the auth collaborator. This core
// never reads PasswordHash; only the token issuer does.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Role         Role      `gorm:"type:varchar(20);not null"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
}
