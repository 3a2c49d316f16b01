package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Service orchestrates signup, login and session verification on top of a
// UserStore. It holds no per-request state; every operation is a function of
// its inputs plus the store and the process randomness source.
type Service struct {
	store    UserStore
	now      func() time.Time
	tokenTTL time.Duration

	// dummyCredential is verified against when login hits an unknown email,
	// so both outcomes burn the same key-derivation work.
	dummyCredential string
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithTokenTTL overrides the session token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs Service with optional configuration.
func NewService(store UserStore, opts ...ServiceOption) (*Service, error) {
	svc := &Service{
		store:    store,
		now:      time.Now,
		tokenTTL: DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	dummy, err := HashPassword("tutorlane-login-decoy")
	if err != nil {
		return nil, fmt.Errorf("prime dummy credential: %w", err)
	}
	svc.dummyCredential = dummy
	return svc, nil
}

// SignupRequest carries the fields collected by the signup form.
type SignupRequest struct {
	FirstName         string
	LastName          string
	Age               int
	Phone             string
	BackupPhone       string
	SchoolName        string
	Email             string
	Role              string
	Grade             string
	SchoolCode        string
	Password          string
	CommercialConsent bool
}

// Signup validates the profile, hashes the password and persists the record.
// A duplicate email surfaces as ErrAlreadyExists from the store's unique
// constraint; the existing record is never altered.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	role, err := validateSignup(&req)
	if err != nil {
		return nil, err
	}

	credential, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Age:               req.Age,
		Phone:             strings.TrimSpace(req.Phone),
		BackupPhone:       strings.TrimSpace(req.BackupPhone),
		SchoolName:        strings.TrimSpace(req.SchoolName),
		Email:             strings.TrimSpace(strings.ToLower(req.Email)),
		Role:              role,
		Grade:             strings.TrimSpace(req.Grade),
		SchoolCode:        strings.TrimSpace(req.SchoolCode),
		PasswordHash:      credential,
		CommercialConsent: req.CommercialConsent,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func validateSignup(req *SignupRequest) (Role, error) {
	required := []struct {
		field string
		value string
	}{
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"phone", req.Phone},
		{"schoolName", req.SchoolName},
		{"email", req.Email},
		{"schoolCode", req.SchoolCode},
		{"password", req.Password},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, f.field)
		}
	}
	if !strings.Contains(req.Email, "@") {
		return "", fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	if req.Age < 0 {
		return "", fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		return "", err
	}
	if role != RoleStudent && strings.TrimSpace(req.Grade) != "" {
		return "", fmt.Errorf("%w: grade is only valid for students", ErrInvalidInput)
	}
	return role, nil
}

// Login verifies credentials by email and mints a session token. Every
// failure collapses to ErrInvalidCredentials so callers cannot tell an
// unknown email from a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = VerifyPassword(s.dummyCredential, password)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrCorruptCredential) {
			return "", nil, err
		}
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(strconv.FormatInt(user.ID, 10), user.Role, user.Email, s.now(), s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifySession is the single verification contract shared by the HTTP
// session-check endpoint and any internal middleware: it accepts whatever
// credential string the transport extracted and returns verified claims or
// a failure.
func (s *Service) VerifySession(ctx context.Context, rawToken string) (*Claims, error) {
	claims, err := parseAndValidateAt(rawToken, s.now())
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if _, err := s.store.Find(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return claims, nil
}
