package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"

	"leaddesk/backend/models"
)

// stubProvider authenticates a fixed set of tokens and counts lookups.
type stubProvider struct {
	sessions map[string]models.Session
	calls    int
}

func (p *stubProvider) IsAuthenticated(ctx context.Context, token string) (models.Session, bool) {
	p.calls++
	s, ok := p.sessions[token]
	return s, ok
}

func newStubProvider() *stubProvider {
	return &stubProvider{sessions: map[string]models.Session{
		"good-token": {ID: "s1", EmployeeID: "e1", Role: models.RoleBDE, Token: "good-token"},
		"dm-token":   {ID: "s2", EmployeeID: "e2", Role: models.RoleDigitalMarketer, Token: "dm-token"},
		"hr-token":   {ID: "s3", EmployeeID: "e3", Role: "hr", Token: "hr-token"},
	}}
}

func TestExtractToken(t *testing.T) {
	testCases := []struct {
		name          string
		authHeader    string
		expectedToken string
	}{
		{
			name:          "Valid Bearer token",
			authHeader:    "Bearer test-token-123",
			expectedToken: "test-token-123",
		},
		{
			name:          "Missing Bearer prefix",
			authHeader:    "test-token-123",
			expectedToken: "",
		},
		{
			name:          "Empty auth header",
			authHeader:    "",
			expectedToken: "",
		},
		{
			name:          "Bearer with no token",
			authHeader:    "Bearer ",
			expectedToken: "",
		},
		{
			name:          "Basic auth",
			authHeader:    "Basic dXNlcjpwYXNz",
			expectedToken: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token := extractToken(tc.authHeader)
			if token != tc.expectedToken {
				t.Errorf("Expected token '%s', got '%s'", tc.expectedToken, token)
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	testCases := []struct {
		name           string
		method         string
		header         string
		query          string
		expectedStatus int
		expectedUser   string
	}{
		{"Valid token", "GET", "Bearer good-token", "", http.StatusOK, "e1"},
		{"Token in query parameter", "GET", "", "?auth=good-token", http.StatusOK, "e1"},
		{"Missing token", "GET", "", "", http.StatusUnauthorized, ""},
		{"Unknown token", "GET", "Bearer nope", "", http.StatusUnauthorized, ""},
		{"OPTIONS preflight skips auth", "OPTIONS", "", "", http.StatusOK, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = GetEmployeeIDFromContext(r)
				w.WriteHeader(http.StatusOK)
			})
			handler := RequireSession(newStubProvider())(next)

			req := httptest.NewRequest(tc.method, "/api/leads/e1"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Errorf("Expected status %d, got %d", tc.expectedStatus, rr.Code)
			}
			if gotUser != tc.expectedUser {
				t.Errorf("Expected employee '%s', got '%s'", tc.expectedUser, gotUser)
			}
		})
	}
}

func TestRequireSessionAsksProviderOnce(t *testing.T) {
	provider := newStubProvider()
	handler := RequireSession(provider)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/api/leads/e1", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if provider.calls != 1 {
		t.Errorf("Expected 1 provider call, got %d", provider.calls)
	}
}

func TestSessionFromContext(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Error("Expected no session in empty context")
	}

	ctx := WithSession(context.Background(), models.Session{EmployeeID: "e9"})
	session, ok := SessionFromContext(ctx)
	if !ok || session.EmployeeID != "e9" {
		t.Errorf("Expected session for e9, got %+v", session)
	}

	req := httptest.NewRequest("GET", "/", nil)
	if id := GetEmployeeIDFromContext(req); id != "" {
		t.Errorf("Expected empty employee ID, got %s", id)
	}
}

func TestRequireRole(t *testing.T) {
	guard := RequireSession(newStubProvider())
	leadRoles := RequireRole(models.LeadRoles...)
	handler := guard(leadRoles(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	testCases := []struct {
		token          string
		expectedStatus int
	}{
		{"good-token", http.StatusOK},
		{"dm-token", http.StatusOK},
		{"hr-token", http.StatusForbidden},
	}

	for _, tc := range testCases {
		req := httptest.NewRequest("GET", "/api/leads/x", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != tc.expectedStatus {
			t.Errorf("Token %s: expected status %d, got %d", tc.token, tc.expectedStatus, rr.Code)
		}
	}
}

func TestRequireRoleWithoutSession(t *testing.T) {
	handler := RequireRole(models.RoleBDE)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called without a session")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

type stubVerifier struct {
	token *auth.Token
	err   error
}

func (v stubVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	return v.token, v.err
}

func TestFirebaseProvider(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := &FirebaseProvider{verifier: stubVerifier{token: &auth.Token{
		UID:     "fb-uid",
		Expires: exp.Unix(),
		Claims:  map[string]interface{}{"role": models.RoleTelecaller, "name": "Ravi"},
	}}}

	session, ok := provider.IsAuthenticated(context.Background(), "id-token")
	if !ok {
		t.Fatal("Expected token to be accepted")
	}
	if session.EmployeeID != "fb-uid" || session.Role != models.RoleTelecaller || session.EmployeeName != "Ravi" {
		t.Errorf("Unexpected session %+v", session)
	}
	if session.Token != "id-token" {
		t.Errorf("Expected session to carry the ID token, got %s", session.Token)
	}
	if !session.ExpiresAt.Equal(exp) {
		t.Errorf("Expected expiry %v, got %v", exp, session.ExpiresAt)
	}
}

func TestFirebaseProviderRejects(t *testing.T) {
	testCases := []struct {
		name     string
		verifier tokenVerifier
	}{
		{"verification error", stubVerifier{err: errors.New("token expired")}},
		{"missing role claim", stubVerifier{token: &auth.Token{UID: "u", Claims: map[string]interface{}{}}}},
		{"no client", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &FirebaseProvider{verifier: tc.verifier}
			if _, ok := provider.IsAuthenticated(context.Background(), "tok"); ok {
				t.Error("Expected token to be rejected")
			}
		})
	}
}

func TestNewFirebaseProviderInvalidBase64(t *testing.T) {
	_, err := NewFirebaseProvider(context.Background(), FirebaseOptions{CredentialsBase64: "%%% not base64"})
	if err == nil {
		t.Error("Expected error for invalid base64 credentials")
	}
}
