package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-listings/internal/service"
	"estate-listings/internal/transport/http/session"
)

type AuthHandler struct {
	accounts *service.AccountService
	log      *zap.Logger
}

func NewAuthHandler(accounts *service.AccountService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log}
}

func (h *AuthHandler) Page(c *gin.Context) { render(c, nil) }

// Login establishes the session only when the password verifies.
func (h *AuthHandler) Login(c *gin.Context) (string, error) {
	a, err := h.accounts.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		h.log.Info("login rejected", zap.String("username", c.PostForm("username")), zap.String("ip", c.ClientIP()))
		return "", err
	}
	session.Login(c, a.Username)
	return "/", nil
}

func (h *AuthHandler) Register(c *gin.Context) (string, error) {
	_, err := h.accounts.Register(c.Request.Context(),
		c.PostForm("username"), c.PostForm("password"), c.PostForm("confirm_password"))
	if err != nil {
		return "", err
	}
	session.AddFlash(c, flashSuccess, "registration successful, please log in")
	return "/login", nil
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session.Logout(c)
	session.AddFlash(c, flashSuccess, "you have been logged out")
	redirect(c, "/")
}
