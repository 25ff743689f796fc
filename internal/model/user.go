package model

// UserRole distinguishes exam takers from exam authors.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User is an account in the identity store.
type User struct {
	ID               string   `json:"id"`
	AdmissionID      string   `json:"admission_id"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Role             UserRole `json:"role"`
	PasswordHash     string   `json:"-"`
	BiometricEnabled bool     `json:"biometric_enabled"`
}

// LoginRequest is the payload for password login.
type LoginRequest struct {
	AdmissionID string `json:"admission_id" binding:"required,min=3,max=40"`
	Password    string `json:"password" binding:"required,min=4,max=72"`
}

// VerifyIdentityRequest asks the identity backend to confirm the caller.
type VerifyIdentityRequest struct {
	Prompt string `json:"prompt" binding:"max=200"`
	Secret string `json:"secret" binding:"max=128"`
}
