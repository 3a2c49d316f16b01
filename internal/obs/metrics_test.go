package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                           "/",
		"/metrics":                   "/metrics",
		"/healthz":                   "/healthz",
		"/api/login":                 "/api/login",
		"/api/verify-session":        "/api/verify-session",
		"/api/verify-session?x=1":    "/api/verify-session",
		"/api/9f3a1c0b":              "/other",
		"/api/login/":                "/other",
		"/v1/info":                   "/v1/info",
		"/admin/secret/8f2c1d":       "/other",
		"/static/app.js":             "/other",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
