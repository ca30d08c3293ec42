package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-listings/internal/domain"
	"estate-listings/internal/service"
	resp "estate-listings/internal/transport/http/response"
	"estate-listings/internal/transport/http/session"
)

// CatalogHandler serves the public read views.
type CatalogHandler struct {
	catalog  *service.CatalogService
	accounts *service.AccountService
}

func NewCatalogHandler(catalog *service.CatalogService, accounts *service.AccountService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, accounts: accounts}
}

// Dashboard lists rent and buy listings. A session naming a vanished
// account is cleared.
func (h *CatalogHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	var role domain.Role
	if username := session.Username(c); username != "" {
		a, err := h.accounts.Lookup(ctx, username)
		if err != nil {
			resp.Abort(c, err)
			return
		}
		if a == nil {
			session.AddFlash(c, flashError, "user not found")
			session.Logout(c)
		} else {
			role = a.Role
		}
	}

	d, err := h.catalog.Dashboard(ctx)
	if err != nil {
		resp.Abort(c, err)
		return
	}
	render(c, gin.H{"role": role, "rent": nonNil(d.Rent), "buy": nonNil(d.Buy)})
}

// Search reads filters from the query string on GET and from the form on POST.
func (h *CatalogHandler) Search(c *gin.Context) {
	get := func(k string) string { return strings.TrimSpace(c.Query(k)) }
	if c.Request.Method == http.MethodPost {
		get = func(k string) string { return formValue(c, k) }
	}
	f, err := parseSearchFilter(get)
	if err != nil {
		session.AddFlash(c, flashError, domain.Message(err))
		redirect(c, "/search")
		return
	}

	out, err := h.catalog.Search(c.Request.Context(), f)
	if err != nil {
		resp.Abort(c, err)
		return
	}
	render(c, gin.H{"listings": nonNil(out)})
}

func (h *CatalogHandler) Detail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		resp.Fail(c, resp.CodeNotFound, "not found")
		return
	}
	l, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		resp.Abort(c, err)
		return
	}
	render(c, gin.H{"listing": l})
}

func nonNil(ls []domain.Listing) []domain.Listing {
	if ls == nil {
		return []domain.Listing{}
	}
	return ls
}
