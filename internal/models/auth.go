package models

import "github.com/golang-jwt/jwt/v5"

// OperatorRole scopes what an admin API token may do.
type OperatorRole string

const (
	OperatorAdmin  OperatorRole = "ADMIN"
	OperatorIngest OperatorRole = "INGEST"
)

// Valid reports whether r is a known role.
func (r OperatorRole) Valid() bool {
	return r == OperatorAdmin || r == OperatorIngest
}

// JWTClaims represents the JWT payload for admin API tokens.
type JWTClaims struct {
	Operator string       `json:"operator"`
	Role     OperatorRole `json:"role"`
	jwt.RegisteredClaims
}
