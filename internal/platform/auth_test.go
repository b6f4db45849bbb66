package platform

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestSubjectFromToken(t *testing.T) {
	tok := signedToken(t, "user-123")
	sub, err := SubjectFromToken(tok)
	if err != nil {
		t.Fatal(err)
	}
	if sub != "user-123" {
		t.Errorf("subject = %q", sub)
	}
}

func TestSubjectFromTokenRejectsGarbage(t *testing.T) {
	if _, err := SubjectFromToken("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
	if _, err := SubjectFromToken(signedToken(t, "")); err == nil {
		t.Error("expected error for missing subject")
	}
}

func TestDecodeAPIError(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"row not found"}`, "row not found"},
		{`{"msg":"Invalid login credentials"}`, "Invalid login credentials"},
		{`{"error":"invalid_grant","error_description":"Invalid login credentials"}`, "Invalid login credentials"},
		{`not json`, ""},
	}
	for _, tt := range tests {
		apiErr := decodeAPIError(400, []byte(tt.body))
		if apiErr.Message != tt.want {
			t.Errorf("decodeAPIError(%q).Message = %q, want %q", tt.body, apiErr.Message, tt.want)
		}
		if apiErr.Status != 400 {
			t.Errorf("status = %d", apiErr.Status)
		}
	}
}
