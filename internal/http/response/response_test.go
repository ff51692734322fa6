package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learn2go-backend/internal/platform/apierr"
)

func render(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, ErrorEnvelope, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	fn(c)
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return rec, env, c
}

func TestRespondAPIErrorClassified(t *testing.T) {
	rec, env, _ := render(t, func(c *gin.Context) {
		RespondAPIError(c, apierr.Conflict("answer_required", errors.New("select an answer first")), "visit_failed")
	})
	if rec.Code != http.StatusConflict || env.Error.Code != "answer_required" || env.Error.Message != "select an answer first" {
		t.Fatalf("classified error: status=%d env=%+v", rec.Code, env)
	}
}

func TestRespondAPIErrorHidesInternalMessage(t *testing.T) {
	rec, env, c := render(t, func(c *gin.Context) {
		RespondAPIError(c, errors.New("pq: connection refused"), "lesson_failed")
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", rec.Code)
	}
	if env.Error.Message != "internal error" || env.Error.Code != "lesson_failed" {
		t.Fatalf("envelope: got=%+v", env.Error)
	}
	if len(c.Errors) != 1 {
		t.Fatalf("cause not attached to context: %v", c.Errors)
	}
}

func TestRespondRedirect(t *testing.T) {
	rec, env, _ := render(t, func(c *gin.Context) {
		RespondRedirect(c, http.StatusNotFound, "lesson_not_found", nil, "/dashboard")
	})
	if rec.Code != http.StatusNotFound || env.Error.Redirect != "/dashboard" || env.Error.Message != "unknown error" {
		t.Fatalf("redirect: status=%d env=%+v", rec.Code, env)
	}
}
