package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"tutorlane.org/internal/sessionguard"
)

func main() {
	base := os.Getenv("TUTORLANE_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	client := sessionguard.NewClient(base)
	email := fmt.Sprintf("smoke-%d@tutorlane.org", rand.New(rand.NewSource(time.Now().UnixNano())).Int())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	form := sessionguard.SignupForm{
		FirstName:  "Smoke",
		LastName:   "Probe",
		Age:        16,
		Phone:      "+10000000000",
		SchoolName: "Smoke High",
		Email:      email,
		UserType:   "student",
		Grade:      "10",
		SchoolCode: "SMK-1",
		Password:   "Probe-Secret-1",
	}
	if err := client.Signup(ctx, form); err != nil {
		log.Fatalf("signup: %v", err)
	}

	result, err := client.Login(ctx, email, form.Password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	if result.Token == "" || result.Role != "student" {
		log.Fatalf("unexpected login result: %+v", result)
	}

	if _, err := client.Login(ctx, email, "wrong-password"); !errors.Is(err, sessionguard.ErrInvalidCredentials) {
		log.Fatalf("wrong password must be rejected, got: %v", err)
	}

	if err := client.Signup(ctx, form); err == nil {
		log.Fatalf("duplicate signup must fail")
	}

	status, err := client.VerifySession(ctx, result.Token)
	if err != nil {
		log.Fatalf("verify-session: %v", err)
	}
	if !status.Authenticated || status.Email != email {
		log.Fatalf("session not recognized: %+v", status)
	}

	anon, err := client.VerifySession(ctx, "")
	if err != nil {
		log.Fatalf("verify-session anonymous: %v", err)
	}
	if anon.Authenticated {
		log.Fatalf("anonymous check must not authenticate")
	}

	fmt.Printf("✅ auth smoke test passed: user=%s\n", email)
}
