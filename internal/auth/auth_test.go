package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndParse(t *testing.T) {
	iss, err := NewIssuer("secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	want := Actor{ID: uuid.New(), Role: "organizer"}
	tok, err := iss.Issue(want)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != want {
		t.Fatalf("actor = %+v, want %+v", got, want)
	}
}

func TestParseRejectsOtherSecret(t *testing.T) {
	a, _ := NewIssuer("one", time.Hour)
	b, _ := NewIssuer("two", time.Hour)
	tok, err := a.Issue(Actor{ID: uuid.New(), Role: "admin"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseExpired(t *testing.T) {
	iss, _ := NewIssuer("secret", time.Minute)
	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return issuedAt }
	tok, err := iss.Issue(Actor{ID: uuid.New(), Role: "participant"})
	if err != nil {
		t.Fatal(err)
	}
	iss.now = func() time.Time { return issuedAt.Add(time.Hour) }
	if _, err := iss.Parse(tok); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("", time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("err = %v, want ErrMissingSecret", err)
	}
}

func TestParseGarbage(t *testing.T) {
	iss, _ := NewIssuer("secret", time.Hour)
	if _, err := iss.Parse("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
