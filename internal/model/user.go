package model

import "time"

// User represents a registered account. Email is stored trimmed and lower-cased.
type User struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResponse is the acknowledgment body returned by operations with no payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse carries the bearer token issued at login.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}
