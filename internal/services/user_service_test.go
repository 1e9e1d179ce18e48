package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/isdelr/prep-deck-be/internal/services"
)

func TestCreateAndAuthenticateUser(t *testing.T) {
	ctx := context.Background()
	svc := services.NewUserService(newTestDB(t))

	user, err := svc.CreateUser(ctx, "Ada Lovelace", " Ada@Example.com ", "hunter2", "https://img/ada.png")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash must not be returned")
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email = %q, want normalized", user.Email)
	}

	authed, err := svc.AuthenticateUser(ctx, "ADA@example.com", "hunter2")
	if err != nil {
		t.Fatalf("AuthenticateUser: %v", err)
	}
	if authed.ID != user.ID || authed.PasswordHash != "" {
		t.Fatalf("unexpected authenticated user: %+v", authed)
	}

	if _, err := svc.AuthenticateUser(ctx, "ada@example.com", "wrong"); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("wrong password: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.AuthenticateUser(ctx, "nobody@example.com", "hunter2"); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("unknown email: expected ErrUnauthorized, got %v", err)
	}

	byID, err := svc.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID.Name != "Ada Lovelace" || byID.ProfileImageURL != "https://img/ada.png" {
		t.Fatalf("unexpected user: %+v", byID)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := services.NewUserService(newTestDB(t))

	if _, err := svc.CreateUser(ctx, "Ada", "ada@example.com", "pw", ""); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := svc.CreateUser(ctx, "Ada Again", "ADA@example.com", "pw", ""); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := services.NewUserService(newTestDB(t))

	cases := []struct {
		name, email, password string
	}{
		{"", "ada@example.com", "pw"},
		{"Ada", "not-an-email", "pw"},
		{"Ada", "ada@example", "pw"},
		{"Ada", "ada@example.com", ""},
	}
	for _, tc := range cases {
		_, err := svc.CreateUser(context.Background(), tc.name, tc.email, tc.password, "")
		if !errors.Is(err, services.ErrValidation) {
			t.Errorf("CreateUser(%q, %q, %q) error = %v, want ErrValidation", tc.name, tc.email, tc.password, err)
		}
	}
}

func TestGetUserByIDUnknown(t *testing.T) {
	svc := services.NewUserService(newTestDB(t))

	if _, err := svc.GetUserByID(context.Background(), "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
