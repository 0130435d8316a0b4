package hasura

import (
	"context"
	"net/http"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/constants"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRole          = "x-hasura-role"
	HeaderUserID        = "x-hasura-user-id"
)

// Identity is the caller's credentials, forwarded unchanged on every upstream
// call so that the GraphQL API authorizes each operation itself.
type Identity struct {
	Authorization string
	Role          string
	UserID        string
}

func IdentityFromRequest(r *http.Request) Identity {
	return Identity{
		Authorization: r.Header.Get(HeaderAuthorization),
		Role:          r.Header.Get(HeaderRole),
		UserID:        r.Header.Get(HeaderUserID),
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, constants.IdentityKey, id)
}

// IdentityFrom returns the identity stored in ctx, or the zero Identity.
func IdentityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(constants.IdentityKey).(Identity)
	return id
}

func (id Identity) apply(h http.Header) {
	h.Set(HeaderAuthorization, id.Authorization)
	h.Set(HeaderRole, id.Role)
	h.Set(HeaderUserID, id.UserID)
}
