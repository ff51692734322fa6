package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/platform/ctxutil"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
	"github.com/yungbote/learn2go-backend/internal/services"
)

func newAuthRouter(t *testing.T) (*gin.Engine, services.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth, err := services.NewAuthService(logger.Nop(), "test-secret", "learn2go")
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	am := NewAuthMiddleware(logger.Nop(), auth)
	r := gin.New()
	api := r.Group("/api", am.RequireAuth())
	api.GET("/me", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, rd.UserID.String())
	})
	api.GET("/admin", am.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, auth
}

func TestRequireAuth(t *testing.T) {
	r, auth := newAuthRouter(t)
	userID := uuid.New()
	token, err := auth.IssueToken(userID, "learner", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "missing", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "header", header: "Bearer " + token, want: http.StatusOK},
		{name: "query", query: "?token=" + token, want: http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/me"+tc.query, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: want=%d got=%d body=%s", tc.name, tc.want, rec.Code, rec.Body.String())
		}
		if tc.want == http.StatusOK && rec.Body.String() != userID.String() {
			t.Fatalf("%s: user id not attached: got=%q", tc.name, rec.Body.String())
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	r, auth := newAuthRouter(t)
	for role, want := range map[string]int{
		"learner": http.StatusForbidden,
		"admin":   http.StatusNoContent,
	} {
		token, err := auth.IssueToken(uuid.New(), role, time.Hour)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("role %s: want=%d got=%d", role, want, rec.Code)
		}
	}
}
