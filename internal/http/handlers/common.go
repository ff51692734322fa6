package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/http/response"
	"github.com/yungbote/learn2go-backend/internal/platform/ctxutil"
)

var (
	errNotAuthenticated = errors.New("not authenticated")
	errInvalidID        = errors.New("invalid id")
)

// requireUser writes a 401 and returns nil when the request carries no caller.
func requireUser(c *gin.Context) *ctxutil.RequestData {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNotAuthenticated)
		return nil
	}
	return rd
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("%w: %s", errInvalidID, name))
		return uuid.Nil, false
	}
	return id, true
}
