package auth

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/powermon/internal/testutil/testlog"
)

func TestStaticTokenValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestForToken(t *testing.T) {
	testlog.Start(t)
	if err := ForToken("").Validate(""); err != nil {
		t.Fatalf("open validator must accept anything: %v", err)
	}
	v := ForToken("secret")
	if err := v.Validate(""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := v.Validate("secret"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestFromRequest(t *testing.T) {
	testlog.Start(t)
	r := httptest.NewRequest("GET", "/ws?token=abc", nil)
	r.Header.Set("Authorization", "Bearer xyz")
	if got := FromRequest(r); got != "abc" {
		t.Fatalf("query token must win, got %q", got)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer xyz")
	if got := FromRequest(r); got != "xyz" {
		t.Fatalf("expected bearer token, got %q", got)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	if got := FromRequest(r); got != "" {
		t.Fatalf("expected no token, got %q", got)
	}
}

func TestFuncValidator(t *testing.T) {
	testlog.Start(t)
	validator := FuncValidator(func(token string) error {
		if token != "ok" {
			return ErrUnauthorized
		}
		return nil
	})

	if err := validator.Validate("bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for bad token, got %v", err)
	}
	if err := validator.Validate("ok"); err != nil {
		t.Fatalf("expected success for ok token, got %v", err)
	}
}
