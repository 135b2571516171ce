package models

import "time"

// StaffAccount is a console login for CARE staff and department referrers.
type StaffAccount struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"fullName" db:"full_name"`
	Role         Role      `json:"role" db:"role"`
	Department   string    `json:"department,omitempty" db:"department"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
