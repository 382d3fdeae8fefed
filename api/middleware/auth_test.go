package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/posfront/pkg/auth"
	"github.com/angelmondragon/posfront/pkg/config"
	"github.com/angelmondragon/posfront/pkg/enums"
	"github.com/angelmondragon/posfront/pkg/upstream"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

type capturedContext struct {
	user     string
	role     string
	company  string
	session  string
	upstream string
}

func captureHandler(out *capturedContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		out.user = UserIDFromContext(ctx)
		out.role = RoleFromContext(ctx)
		out.company = CompanyIDFromContext(ctx)
		out.session = SessionIDFromContext(ctx)
		out.upstream = upstream.BearerTokenFromContext(ctx)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	token := mintTestToken(t, enums.MemberRoleCashier, "jti-1")

	var captured capturedContext
	handler := Auth(testJWT, nil)(captureHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user != "user-1" {
		t.Fatalf("expected user-1 got %q", captured.user)
	}
	if captured.role != string(enums.MemberRoleCashier) {
		t.Fatalf("expected role cashier got %s", captured.role)
	}
	if captured.company != "co-1" {
		t.Fatalf("expected company co-1 got %q", captured.company)
	}
	if captured.session != "user-1:jti-1" {
		t.Fatalf("expected session to default to the jti, got %q", captured.session)
	}
	if captured.upstream != token {
		t.Fatalf("expected raw token forwarded upstream")
	}
}

func TestAuthUsesSessionHeader(t *testing.T) {
	token := mintTestToken(t, enums.MemberRoleManager, "jti-1")

	var captured capturedContext
	handler := Auth(testJWT, nil)(captureHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(SessionHeader, " register-2 ")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.session != "user-1:register-2" {
		t.Fatalf("expected header session, got %q", captured.session)
	}
}

func TestAuthRejectsOversizedSessionHeader(t *testing.T) {
	token := mintTestToken(t, enums.MemberRoleCashier, "")

	handler := Auth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(SessionHeader, strings.Repeat("x", maxSessionIDLength+1))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRequireCatalogManager(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{string(enums.MemberRoleOwner), http.StatusOK},
		{string(enums.MemberRoleManager), http.StatusOK},
		{string(enums.MemberRoleCashier), http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tt := range tests {
		handler := RequireCatalogManager(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithRole(req.Context(), tt.role))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tt.want {
			t.Fatalf("role %q: expected %d got %d", tt.role, tt.want, resp.Code)
		}
	}
}

func mintTestToken(t *testing.T, role enums.MemberRole, jti string) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID:    "user-1",
		CompanyID: "co-1",
		Role:      role,
		JTI:       jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRequirePermissionDetailsForbiddenRole(t *testing.T) {
	handler := RequirePermission(enums.PermissionManageCatalog, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req = req.WithContext(WithRole(req.Context(), "cashier"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"permission":"catalog:manage"`) {
		t.Fatalf("expected permission detail, got %s", resp.Body.String())
	}
}
