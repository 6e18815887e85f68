package auth

import (
	"context"
	"net/http"
	"strings"

	"rfphub/models"
)

type ctxKey int

const userKey ctxKey = 0

// UserLoader resolves an authenticated user id to its record.
type UserLoader interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// Authenticator turns Bearer tokens into request-scoped users.
type Authenticator struct {
	Secret []byte
	Users  UserLoader
}

// UserFrom returns the authenticated user stored in ctx, or nil for
// anonymous requests.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// WithUser returns a child context carrying u. Exported for handler tests.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func (a *Authenticator) resolve(r *http.Request) *models.User {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil
	}
	userID, err := UserIDFromToken(token, a.Secret)
	if err != nil {
		return nil
	}
	user, err := a.Users.GetUser(r.Context(), userID)
	if err != nil || !user.Active {
		return nil
	}
	return user
}

// Require rejects requests without a valid token with 401.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := a.resolve(r)
		if user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Optional attaches the user when a valid token is present and passes the
// request through anonymously otherwise.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := a.resolve(r); user != nil {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}
