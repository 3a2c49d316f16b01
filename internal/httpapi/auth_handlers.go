package httpapi

import (
	"errors"
	"net/http"

	"tutorlane.org/internal/audit"
	"tutorlane.org/internal/auth"
	"tutorlane.org/internal/obs"
)

// invalidCredentialsMessage is the single opaque login failure. It must not
// distinguish an unknown email from a wrong password.
const invalidCredentialsMessage = "Invalid email or password"

type signupRequest struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Age               int    `json:"age"`
	Phone             string `json:"phone"`
	BackupPhone       string `json:"backupPhone"`
	SchoolName        string `json:"schoolName"`
	Email             string `json:"email"`
	UserType          string `json:"userType"`
	Grade             string `json:"grade"`
	SchoolCode        string `json:"schoolCode"`
	Password          string `json:"password"`
	CommercialConsent bool   `json:"commercialConsent"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Role    string `json:"role"`
	Name    string `json:"name"`
}

type verifySessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
	Email         string `json:"email,omitempty"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		obs.IncSignup("invalid")
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.auth.Signup(r.Context(), auth.SignupRequest{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Age:               req.Age,
		Phone:             req.Phone,
		BackupPhone:       req.BackupPhone,
		SchoolName:        req.SchoolName,
		Email:             req.Email,
		Role:              req.UserType,
		Grade:             req.Grade,
		SchoolCode:        req.SchoolCode,
		Password:          req.Password,
		CommercialConsent: req.CommercialConsent,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			obs.IncSignup("invalid")
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrAlreadyExists):
			obs.IncSignup("duplicate")
			writeError(w, r, http.StatusConflict, "email already exists")
		default:
			obs.IncSignup("error")
			_ = audit.LogEvent(r.Context(), "auth.signup.error", map[string]any{"reason": err.Error()})
			writeError(w, r, http.StatusInternalServerError, "registration failed, please try again")
		}
		return
	}

	obs.IncSignup("ok")
	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"email": user.Email,
		"role":  user.Role.String(),
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			obs.IncLogin("denied")
			_ = audit.LogEvent(r.Context(), "auth.login.denied", map[string]any{})
			writeError(w, r, http.StatusUnauthorized, invalidCredentialsMessage)
		case errors.Is(err, auth.ErrCorruptCredential):
			// Logged with detail for operators, surfaced as the opaque failure.
			obs.IncLogin("denied")
			_ = audit.LogEvent(r.Context(), "auth.credential.corrupt", map[string]any{})
			writeError(w, r, http.StatusUnauthorized, invalidCredentialsMessage)
		default:
			obs.IncLogin("error")
			_ = audit.LogEvent(r.Context(), "auth.login.error", map[string]any{"reason": err.Error()})
			writeError(w, r, http.StatusInternalServerError, "login failed, please try again")
		}
		return
	}

	obs.IncLogin("ok")
	_ = audit.LogEvent(auth.ContextWithToken(r.Context(), token), "auth.login", map[string]any{
		"email": user.Email,
		"role":  user.Role.String(),
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   token,
		Role:    user.Role.String(),
		Name:    user.DisplayName(),
	})
}

// handleVerifySession answers the liveness question for the client-side
// guard. Every internal failure collapses to authenticated:false; no error
// detail crosses this boundary.
func (a *API) handleVerifySession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	raw, ok := credentialFromRequest(r)
	if !ok {
		obs.IncSessionCheck("denied")
		writeJSON(w, http.StatusOK, verifySessionResponse{Authenticated: false})
		return
	}
	ctx := auth.ContextWithToken(r.Context(), raw)

	claims, err := a.auth.VerifySession(ctx, raw)
	if err != nil {
		obs.IncSessionCheck("denied")
		if !errors.Is(err, auth.ErrInvalidToken) {
			_ = audit.LogEvent(ctx, "auth.session.error", map[string]any{"reason": err.Error()})
		}
		writeJSON(w, http.StatusOK, verifySessionResponse{Authenticated: false})
		return
	}

	obs.IncSessionCheck("ok")
	writeJSON(w, http.StatusOK, verifySessionResponse{
		Authenticated: true,
		Role:          claims.Role.String(),
		Email:         claims.Email,
	})
}
