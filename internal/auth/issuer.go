package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuerKeyID = "dkqa-key-1"

// Issuer holds an RSA key pair for signing stub platform tokens. The stub
// request router issues these on sign-in and the stub task service verifies
// them; real deployments are never touched by this issuer.
type Issuer struct {
	privateKey *rsa.PrivateKey
	issuer     string
	audience   string
}

// NewIssuer creates an issuer with a fresh RSA key pair.
func NewIssuer() (*Issuer, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("auth: generate RSA key: %w", err)
	}
	return &Issuer{
		privateKey: key,
		issuer:     "https://stub.dagknows.test",
		audience:   "dagknows-platform",
	}, nil
}

// Sign creates a signed JWT valid for the given duration.
func (i *Issuer) Sign(claims Claims, ttl time.Duration) (string, error) {
	return i.sign(claims, time.Now(), ttl)
}

// SignExpired creates a JWT that expired an hour ago, for negative tests.
func (i *Issuer) SignExpired(claims Claims) (string, error) {
	return i.sign(claims, time.Now().Add(-2*time.Hour), time.Hour)
}

func (i *Issuer) sign(claims Claims, issuedAt time.Time, ttl time.Duration) (string, error) {
	mapClaims := jwt.MapClaims{
		"iss":       i.issuer,
		"aud":       i.audience,
		"iat":       jwt.NewNumericDate(issuedAt),
		"exp":       jwt.NewNumericDate(issuedAt.Add(ttl)),
		"sub":       claims.SubjectID,
		"tenant_id": claims.TenantID,
		"email":     claims.Email,
		"org":       claims.Org,
	}
	if len(claims.Roles) > 0 {
		roles := make([]any, len(claims.Roles))
		for idx, r := range claims.Roles {
			roles[idx] = r
		}
		mapClaims["roles"] = roles
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, mapClaims)
	token.Header["kid"] = issuerKeyID

	signed, err := token.SignedString(i.privateKey)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token signed by this issuer and returns its
// claims.
func (i *Issuer) Verify(token string) (Claims, error) {
	var mc jwt.MapClaims
	parsed, err := jwt.ParseWithClaims(token, &mc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return &i.privateKey.PublicKey, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithAudience(i.audience))
	if err != nil {
		return Claims{}, fmt.Errorf("auth: verify token: %w", err)
	}
	if !parsed.Valid {
		return Claims{}, fmt.Errorf("auth: token invalid")
	}
	return claimsFromMap(mc), nil
}

// JWKSHandler serves the issuer's public key as a JWKS document, matching
// what a real identity provider would expose.
func (i *Issuer) JWKSHandler() http.HandlerFunc {
	jwk := map[string]any{
		"kid": issuerKeyID,
		"kty": "RSA",
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(i.privateKey.PublicKey.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(i.privateKey.PublicKey.E)).Bytes()),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]any{jwk},
		})
	}
}
