package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

const RoleAdmin = "admin"

// RequestData is the authenticated caller, taken from the verified access token.
type RequestData struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Role      string
}

func (rd *RequestData) IsAdmin() bool { return rd != nil && rd.Role == RoleAdmin }

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
