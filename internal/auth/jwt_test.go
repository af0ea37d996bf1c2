package auth

import (
	"testing"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("secret", 42, "TECHNICIAN")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateToken("secret", token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.StaffID != 42 {
		t.Errorf("staff id = %d, want 42", claims.StaffID)
	}
	if claims.Role != "TECHNICIAN" {
		t.Errorf("role = %q, want TECHNICIAN", claims.Role)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", 42, "OWNER")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken("secret", "not.a.jwt"); err == nil {
		t.Error("expected validation to fail for malformed token")
	}
}
