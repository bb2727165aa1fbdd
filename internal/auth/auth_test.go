package auth

import (
	"strings"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret!123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "Secret!123" {
		t.Fatal("password stored in the clear")
	}
	if err := CheckPassword(hash, "Secret!123"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", Role: "HR", EmployeeID: "E1"}, time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "HR" || claims.EmployeeID != "E1" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseTokenRejectsBadSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("token signed with a different secret was accepted")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expired token was accepted")
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		wantErr  string
	}{
		{"Valid!123", ""},
		{"short1!", "at least 8"},
		{"nouppercase1!", "uppercase"},
		{"NOLOWERCASE1!", "lowercase"},
		{"NoNumbers!!", "number"},
		{"NoSpecial123", "special"},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.wantErr == "" {
			if err != nil {
				t.Fatalf("ValidatePassword(%q) = %v, want nil", tc.password, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("ValidatePassword(%q) = %v, want error containing %q", tc.password, err, tc.wantErr)
		}
	}
}
