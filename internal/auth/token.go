// Package auth inspects platform JWTs and provides a local RSA token issuer
// for the stub platform.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity fields the platform embeds in its tokens.
type Claims struct {
	SubjectID string
	TenantID  string
	Email     string
	Org       string
	Roles     []string
	ExpiresAt time.Time
}

// InspectToken decodes a platform JWT without verifying its signature. The
// suite does not hold the deployment's signing keys; it only needs the
// claims to pick tenants and to skip tests for expired tokens.
func InspectToken(token string) (Claims, error) {
	parser := jwt.NewParser()
	var mc jwt.MapClaims
	if _, _, err := parser.ParseUnverified(token, &mc); err != nil {
		return Claims{}, fmt.Errorf("auth: parse token: %w", err)
	}
	return claimsFromMap(mc), nil
}

// IsExpired reports whether the claims' expiry has passed. Tokens without an
// exp claim never expire.
func (c Claims) IsExpired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// HasRole reports whether the claims carry the named role.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func claimsFromMap(mc jwt.MapClaims) Claims {
	c := Claims{}
	if sub, _ := mc.GetSubject(); sub != "" {
		c.SubjectID = sub
	}
	if v, ok := mc["tenant_id"].(string); ok {
		c.TenantID = v
	}
	if v, ok := mc["email"].(string); ok {
		c.Email = v
	}
	if v, ok := mc["org"].(string); ok {
		c.Org = v
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if raw, ok := mc["roles"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				c.Roles = append(c.Roles, s)
			}
		}
	}
	return c
}
