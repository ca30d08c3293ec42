package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-listings/internal/domain"
	"estate-listings/internal/service"
	"estate-listings/internal/transport/http/middleware"
	resp "estate-listings/internal/transport/http/response"
	"estate-listings/internal/transport/http/session"
)

// AdminHandler serves the listing management pages. Every route sits behind
// middleware.RequireAdmin.
type AdminHandler struct {
	catalog *service.CatalogService
}

func NewAdminHandler(catalog *service.CatalogService) *AdminHandler {
	return &AdminHandler{catalog: catalog}
}

func (h *AdminHandler) Index(c *gin.Context) {
	all, err := h.catalog.All(c.Request.Context())
	if err != nil {
		resp.Abort(c, err)
		return
	}
	data := gin.H{"listings": nonNil(all)}
	if a := middleware.Account(c); a != nil {
		data["role"] = a.Role
	}
	render(c, data)
}

func (h *AdminHandler) AddPage(c *gin.Context) {
	render(c, gin.H{"maxImages": domain.MaxImages})
}

// Add creates a listing from the multipart form; every "images" part is
// offered to the image store.
func (h *AdminHandler) Add(c *gin.Context) (string, error) {
	var files []*multipart.FileHeader
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		files = form.File["images"]
	case middleware.IsTooLarge(err):
		return "", domain.Validation("upload is too large")
	case !errors.Is(err, http.ErrNotMultipart):
		return "", domain.Validation("malformed upload")
	}

	in, err := parseListingForm(c)
	if err != nil {
		return "", err
	}
	if _, err := h.catalog.Create(c.Request.Context(), in, files); err != nil {
		return "", err
	}
	session.AddFlash(c, flashSuccess, "listing added")
	return "/admin", nil
}

func (h *AdminHandler) EditPage(c *gin.Context) {
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

// Edit updates the scalar fields; the stored images are left as they are.
func (h *AdminHandler) Edit(c *gin.Context) (string, error) {
	id, ok := parseID(c)
	if !ok {
		return "", domain.NotFound("not found")
	}
	in, err := parseListingForm(c)
	if err != nil {
		return "", err
	}
	if err := h.catalog.Update(c.Request.Context(), id, in); err != nil {
		return "", err
	}
	session.AddFlash(c, flashSuccess, "listing updated")
	return "/admin", nil
}

// EditBack sends a failed edit back to its own form.
func EditBack(c *gin.Context) string {
	if id, ok := parseID(c); ok {
		return fmt.Sprintf("/admin/edit/%d", id)
	}
	return "/admin"
}

// Delete removes the listing and its files. Files that cannot be removed are
// reported as warnings.
func (h *AdminHandler) Delete(c *gin.Context) (string, error) {
	id, ok := parseID(c)
	if !ok {
		return "", domain.NotFound("not found")
	}
	warnings, err := h.catalog.Delete(c.Request.Context(), id)
	if err != nil {
		return "", err
	}
	for _, w := range warnings {
		session.AddFlash(c, flashWarning, domain.Message(w))
	}
	session.AddFlash(c, flashSuccess, "listing and its images deleted")
	return "/admin", nil
}
