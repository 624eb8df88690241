package session

import (
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims covers the fields the backend is known to put in its tokens.
// Roles may arrive as a single "role" or a "roles" list, with or without a ROLE_ prefix.
type Claims struct {
	UserID int64    `json:"userId,omitempty"`
	Email  string   `json:"email,omitempty"`
	Role   string   `json:"role,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 && claims.Subject != "" {
		if id, err := strconv.ParseInt(claims.Subject, 10, 64); err == nil {
			claims.UserID = id
		}
	}
	return claims, nil
}

func (c *Claims) HasRole(role string) bool {
	want := normalizeRole(role)
	if normalizeRole(c.Role) == want {
		return true
	}
	for _, r := range c.Roles {
		if normalizeRole(r) == want {
			return true
		}
	}
	return false
}

func normalizeRole(role string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(role)), "ROLE_")
}
