package models

import (
	"fmt"
	"time"
)

// Employee is the identity returned by a successful login.
type Employee struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name"`
	Role  string `json:"role" validate:"required"`
	Token string `json:"token" validate:"required"`
}

// DashboardPath returns the landing route for the employee's role, or "" for unknown roles.
func (e Employee) DashboardPath() string {
	switch e.Role {
	case RoleBDE:
		return fmt.Sprintf("/bde/bde-dashboard/%s", e.ID)
	case RoleTelecaller:
		return fmt.Sprintf("/telecaler/telecaller-dashboard/%s", e.ID)
	case RoleDigitalMarketer:
		return fmt.Sprintf("/digitalmarketer/digitalmarketer-dashboard/%s", e.ID)
	}
	return ""
}

// Session is a logged-in employee as tracked by the server.
type Session struct {
	ID           string    `json:"id" db:"id"`
	EmployeeID   string    `json:"employeeId" db:"employee_id"`
	EmployeeName string    `json:"employeeName" db:"employee_name"`
	Role         string    `json:"role" db:"role"`
	Token        string    `json:"-" db:"-"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt    time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
