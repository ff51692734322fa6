package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learn2go-backend/internal/platform/apierr"
)

var errInternal = errors.New("internal error")

type APIError struct {
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func envelope(code string, err error, redirect string) ErrorEnvelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ErrorEnvelope{Error: APIError{Message: msg, Code: code, Redirect: redirect}}
}

func RespondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, envelope(code, err, ""))
}

// RespondAPIError renders err through apierr.As. Unclassified errors become a 500 with fallbackCode
// and their message is not echoed to the client.
func RespondAPIError(c *gin.Context, err error, fallbackCode string) {
	ae := apierr.As(err, fallbackCode)
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(ae.Status, envelope(ae.Code, errInternal, ""))
		return
	}
	c.JSON(ae.Status, envelope(ae.Code, ae, ""))
}

// RespondRedirect is RespondError with a client route to fall back to.
func RespondRedirect(c *gin.Context, status int, code string, err error, route string) {
	c.JSON(status, envelope(code, err, route))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
