package model

import "github.com/golang-jwt/jwt/v5"

type AccessClaims struct {
	UserID uint   `json:"userId"`
	Role   string `json:"role"`
	Team   string `json:"team,omitempty"`
	jwt.RegisteredClaims
}
