package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credential is the login record kept in the relational store
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// User is the public profile kept in Mongo
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CredentialID string             `bson:"credential_id" json:"-"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	Image        string             `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Image    string `json:"image,omitempty" validate:"omitempty,url"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
