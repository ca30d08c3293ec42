// Package session keeps the login state and flash notices of a browser in
// one signed cookie.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"estate-listings/internal/core/auth"
)

const (
	ctxKey     = "session"
	managerKey = "session.manager"
)

type state struct {
	Username string
	Flashes  []auth.Flash
}

type Manager struct {
	jwter  *auth.JWTer
	name   string
	secure bool
}

func NewManager(j *auth.JWTer, cookieName string, secure bool) *Manager {
	if cookieName == "" {
		cookieName = "session"
	}
	return &Manager{jwter: j, name: cookieName, secure: secure}
}

// Load decodes the session cookie into the request context. A missing,
// tampered or expired cookie yields an empty session.
func (m *Manager) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		st := &state{}
		if raw, err := c.Cookie(m.name); err == nil && raw != "" {
			if claims, err := m.jwter.Parse(raw); err == nil {
				st.Username = claims.Subject
				st.Flashes = claims.Flashes
			}
		}
		c.Set(ctxKey, st)
		c.Set(managerKey, m)
		c.Next()
	}
}

func current(c *gin.Context) (*state, *Manager) {
	st, _ := c.MustGet(ctxKey).(*state)
	m, _ := c.MustGet(managerKey).(*Manager)
	return st, m
}

// Username returns the logged-in username or "".
func Username(c *gin.Context) string {
	v, ok := c.Get(ctxKey)
	if !ok {
		return ""
	}
	return v.(*state).Username
}

func Login(c *gin.Context, username string) {
	st, m := current(c)
	st.Username = username
	m.save(c, st)
}

// Logout drops the username but keeps pending flashes.
func Logout(c *gin.Context) {
	st, m := current(c)
	st.Username = ""
	m.save(c, st)
}

func AddFlash(c *gin.Context, category, msg string) {
	st, m := current(c)
	st.Flashes = append(st.Flashes, auth.Flash{Category: category, Message: msg})
	m.save(c, st)
}

// PopFlashes returns pending flashes and clears them.
func PopFlashes(c *gin.Context) []auth.Flash {
	st, m := current(c)
	out := st.Flashes
	if len(out) == 0 {
		return []auth.Flash{}
	}
	st.Flashes = nil
	m.save(c, st)
	return out
}

func (m *Manager) save(c *gin.Context, st *state) {
	m.dropPending(c)
	c.SetSameSite(http.SameSiteLaxMode)
	if st.Username == "" && len(st.Flashes) == 0 {
		c.SetCookie(m.name, "", -1, "/", "", m.secure, true)
		return
	}
	tok, err := m.jwter.Issue(st.Username, st.Flashes)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.SetCookie(m.name, tok, int(m.jwter.TTL/time.Second), "/", "", m.secure, true)
}

// dropPending removes a Set-Cookie for this session written earlier in the
// same request so only the latest state is sent.
func (m *Manager) dropPending(c *gin.Context) {
	h := c.Writer.Header()
	prefix := m.name + "="
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
}
