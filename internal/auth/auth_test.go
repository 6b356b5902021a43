package auth

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func qaClaims() Claims {
	return Claims{
		SubjectID: "user-qa",
		TenantID:  "acme",
		Email:     "qa@acme.example.com",
		Org:       "acme",
		Roles:     []string{"admin", "editor"},
	}
}

func TestIssuer_sign_and_verify(t *testing.T) {
	issuer, err := NewIssuer()
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	token, err := issuer.Sign(qaClaims(), time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	got, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got.SubjectID != "user-qa" {
		t.Errorf("SubjectID = %q, want user-qa", got.SubjectID)
	}
	if got.TenantID != "acme" {
		t.Errorf("TenantID = %q, want acme", got.TenantID)
	}
	if len(got.Roles) != 2 || got.Roles[0] != "admin" {
		t.Errorf("Roles = %v", got.Roles)
	}
	if got.IsExpired() {
		t.Error("fresh token should not be expired")
	}
}

func TestIssuer_expired_token_rejected(t *testing.T) {
	issuer, err := NewIssuer()
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	token, err := issuer.SignExpired(qaClaims())
	if err != nil {
		t.Fatalf("SignExpired() error = %v", err)
	}

	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("Verify() should reject an expired token")
	}
}

func TestIssuer_foreign_token_rejected(t *testing.T) {
	a, _ := NewIssuer()
	b, _ := NewIssuer()

	token, err := a.Sign(qaClaims(), time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Fatal("Verify() should reject a token signed by another key")
	}
}

func TestInspectToken(t *testing.T) {
	issuer, _ := NewIssuer()
	token, _ := issuer.Sign(qaClaims(), time.Hour)

	claims, err := InspectToken(token)
	if err != nil {
		t.Fatalf("InspectToken() error = %v", err)
	}
	if claims.Email != "qa@acme.example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if !claims.HasRole("editor") {
		t.Error("HasRole(editor) = false, want true")
	}
	if claims.HasRole("viewer") {
		t.Error("HasRole(viewer) = true, want false")
	}
}

func TestInspectToken_expired_detectable(t *testing.T) {
	issuer, _ := NewIssuer()
	token, _ := issuer.SignExpired(qaClaims())

	// Inspection does not validate, so it still parses.
	claims, err := InspectToken(token)
	if err != nil {
		t.Fatalf("InspectToken() error = %v", err)
	}
	if !claims.IsExpired() {
		t.Error("IsExpired() = false for an expired token")
	}
}

func TestInspectToken_garbage(t *testing.T) {
	if _, err := InspectToken("not-a-jwt"); err == nil {
		t.Fatal("InspectToken() should fail on garbage input")
	}
}

func TestJWKSHandler(t *testing.T) {
	issuer, _ := NewIssuer()

	rec := httptest.NewRecorder()
	issuer.JWKSHandler()(rec, httptest.NewRequest("GET", "/.well-known/jwks.json", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"kid":"dkqa-key-1"`, `"kty":"RSA"`, `"alg":"RS256"`} {
		if !strings.Contains(body, want) {
			t.Errorf("JWKS body missing %s", want)
		}
	}
}
