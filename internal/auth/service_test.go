package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeStore struct {
	byEmail map[string]*User
	nextID  int64
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{byEmail: make(map[string]*User), nextID: 1}
}

func (f *fakeStore) Create(_ context.Context, u *User) error {
	if f.failing {
		return errors.New("storage offline")
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return ErrAlreadyExists
	}
	u.ID = f.nextID
	u.CreatedAt = time.Now().UTC()
	f.nextID++
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeStore) Find(_ context.Context, id int64) (*User, error) {
	if f.failing {
		return nil, errors.New("storage offline")
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*User, error) {
	if f.failing {
		return nil, errors.New("storage offline")
	}
	u, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func validSignup() SignupRequest {
	return SignupRequest{
		FirstName:         "Ada",
		LastName:          "Kim",
		Age:               15,
		Phone:             "5550001",
		SchoolName:        "Riverside High",
		Email:             "A@X.com",
		Role:              "student",
		Grade:             "9",
		SchoolCode:        "RH-12",
		Password:          "Secret1",
		CommercialConsent: true,
	}
}

func TestSignupLoginScenario(t *testing.T) {
	setTestSecret(t)
	store := newFakeStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	user, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.PasswordHash == "" || strings.Contains(user.PasswordHash, "Secret1") {
		t.Fatalf("plaintext leaked into stored credential")
	}

	token, logged, err := svc.Login(ctx, "a@x.com", "Secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" || logged.ID != user.ID {
		t.Fatalf("unexpected login result: token=%q id=%d", token, logged.ID)
	}

	if _, _, err := svc.Login(ctx, "a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Signup(ctx, validSignup()); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate signup: expected ErrAlreadyExists, got %v", err)
	}
	if got := store.byEmail["a@x.com"]; got.ID != user.ID || got.PasswordHash != user.PasswordHash {
		t.Fatalf("duplicate signup altered the existing record")
	}

	claims, err := svc.VerifySession(ctx, token)
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if claims.Subject != "1" || claims.Role != RoleStudent {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginFailureIsOpaque(t *testing.T) {
	setTestSecret(t)
	store := newFakeStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	_, _, wrongPassword := svc.Login(ctx, "a@x.com", "wrong")
	_, _, unknownEmail := svc.Login(ctx, "nobody@x.com", "whatever")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) || !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected identical opaque failures, got %v and %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("failure messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestLoginCorruptCredentialNeverAuthenticates(t *testing.T) {
	setTestSecret(t)
	store := newFakeStore()
	store.byEmail["a@x.com"] = &User{
		ID:           1,
		Email:        "a@x.com",
		Role:         RoleStudent,
		PasswordHash: "not-a-credential",
	}
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "a@x.com", "anything"); !errors.Is(err, ErrCorruptCredential) {
		t.Fatalf("expected ErrCorruptCredential, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	setTestSecret(t)
	svc, err := NewService(newFakeStore())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	cases := map[string]func(*SignupRequest){
		"missing first name": func(r *SignupRequest) { r.FirstName = " " },
		"missing phone":      func(r *SignupRequest) { r.Phone = "" },
		"missing password":   func(r *SignupRequest) { r.Password = "" },
		"malformed email":    func(r *SignupRequest) { r.Email = "not-an-email" },
		"unknown role":       func(r *SignupRequest) { r.Role = "admin" },
		"negative age":       func(r *SignupRequest) { r.Age = -1 },
		"grade on tutor": func(r *SignupRequest) {
			r.Role = "tutor"
			r.Grade = "9"
		},
	}
	for name, mutate := range cases {
		req := validSignup()
		mutate(&req)
		if _, err := svc.Signup(ctx, req); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestVerifySessionRejectsGarbage(t *testing.T) {
	setTestSecret(t)
	svc, err := NewService(newFakeStore())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.VerifySession(ctx, raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("raw %q: expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestSessionExpiryFollowsServiceClock(t *testing.T) {
	setTestSecret(t)
	store := newFakeStore()
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewService(store, WithClock(func() time.Time { return current }))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	token, _, err := svc.Login(ctx, "a@x.com", "Secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := svc.VerifySession(ctx, token)
	if err != nil {
		t.Fatalf("VerifySession before expiry: %v", err)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(current.Add(DefaultTokenTTL)) {
		t.Fatalf("expiry not derived from the service clock: %v", got)
	}

	current = current.Add(DefaultTokenTTL + time.Minute)
	if _, err := svc.VerifySession(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after the clock passed expiry, got %v", err)
	}
}

func TestVerifySessionRejectsDeletedUser(t *testing.T) {
	setTestSecret(t)
	store := newFakeStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	token, _, err := svc.Login(ctx, "a@x.com", "Secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	delete(store.byEmail, "a@x.com")
	if _, err := svc.VerifySession(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after record removal, got %v", err)
	}
}
