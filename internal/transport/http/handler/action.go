// Package handler maps the listing site's routes onto the services. GET views
// answer with the JSON envelope; form posts answer with a 303 redirect and
// leave their outcome as a flash notice.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-listings/internal/domain"
	resp "estate-listings/internal/transport/http/response"
	"estate-listings/internal/transport/http/session"
)

const (
	flashSuccess = "success"
	flashError   = "error"
	flashWarning = "warning"
)

// ActionFunc handles a form post and returns where to send the browser next.
type ActionFunc func(c *gin.Context) (string, error)

// Action wraps fn. Validation, auth and upload failures become an error flash
// and a redirect to back(c); not-found and internal errors are answered in
// the envelope.
func Action(back func(*gin.Context) string, fn ActionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		to, err := fn(c)
		if err == nil {
			redirect(c, to)
			return
		}
		switch domain.KindOf(err) {
		case domain.KindValidation, domain.KindAuth, domain.KindIO:
			_ = c.Error(err)
			session.AddFlash(c, flashError, domain.Message(err))
			redirect(c, back(c))
		default:
			resp.Abort(c, err)
		}
	}
}

// BackTo is a fixed fallback for Action.
func BackTo(path string) func(*gin.Context) string {
	return func(*gin.Context) string { return path }
}

func redirect(c *gin.Context, to string) {
	c.Redirect(http.StatusSeeOther, to)
}

// render answers a view with the page data plus the session user and the
// flashes pending for it.
func render(c *gin.Context, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["username"] = session.Username(c)
	data["flashes"] = session.PopFlashes(c)
	resp.JSON(c, data)
}
