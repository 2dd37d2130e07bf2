package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthJWT(t *testing.T) {
	const secret = "test-secret"
	valid, err := SignToken(secret, "owner-1", "zh", time.Hour)
	if err != nil {
		t.Fatalf("SignToken error: %v", err)
	}
	expired, _ := SignToken(secret, "owner-1", "", -time.Hour)
	foreign, _ := SignToken("other-secret", "owner-1", "", time.Hour)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte(secret))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "owner-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + valid, want: http.StatusOK},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, want: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + noSubject, want: http.StatusUnauthorized},
		{name: "alg none", header: "Bearer " + none, want: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var owner, locale string
			h := AuthJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				owner = OwnerIDFromContext(r.Context())
				locale = LocaleFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusOK && (owner != "owner-1" || locale != "zh") {
				t.Fatalf("owner = %q locale = %q", owner, locale)
			}
			if tc.want == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"code":"unauthorized"`) {
				t.Fatalf("unexpected body: %s", rec.Body.String())
			}
		})
	}
}
