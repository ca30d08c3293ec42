package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-listings/internal/domain"
	resp "estate-listings/internal/transport/http/response"
	"estate-listings/internal/transport/http/session"
)

const KeyAccount = "account"

// AccountLookup returns (nil, nil) for an unknown username.
type AccountLookup interface {
	Lookup(ctx context.Context, username string) (*domain.Account, error)
}

// RequireAdmin resolves the session user against the store on every request,
// so a demoted or removed account loses access immediately.
func RequireAdmin(accounts AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := session.Username(c)
		if username == "" {
			session.AddFlash(c, "error", "please log in")
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		a, err := accounts.Lookup(c.Request.Context(), username)
		if err != nil {
			resp.Abort(c, err)
			return
		}
		if a == nil {
			session.Logout(c)
			session.AddFlash(c, "error", "user not found")
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		if !a.IsAdmin() {
			session.AddFlash(c, "error", "access denied")
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}

		c.Set(KeyAccount, a)
		c.Next()
	}
}

// Account returns the account stored by RequireAdmin.
func Account(c *gin.Context) *domain.Account {
	a, _ := c.Get(KeyAccount)
	acc, _ := a.(*domain.Account)
	return acc
}
