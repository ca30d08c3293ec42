package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"estate-listings/internal/core/server"
	"estate-listings/internal/service"
	"estate-listings/internal/transport/http/handler"
	mdw "estate-listings/internal/transport/http/middleware"
	resp "estate-listings/internal/transport/http/response"
	"estate-listings/internal/transport/http/session"
)

type Deps struct {
	Log      *zap.Logger
	Sessions *session.Manager
	Accounts *service.AccountService
	Catalog  *service.CatalogService

	UploadDir      string
	MaxUploadBytes int64
	CORSOrigins    []string

	AuthRPS        float64
	AuthBurst      int
	MaxConcurrency int64
	Timeout        time.Duration

	// Ping backs /health; nil reports healthy.
	Ping func(context.Context) error
}

func NewEngine(d Deps) *gin.Engine {
	r := server.NewRouter(d.Log, d.CORSOrigins)
	r.Use(
		mdw.RequestID(),
		mdw.Metrics(),
		mdw.AccessLog(d.Log.Named("http")),
	)

	r.GET("/health", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				resp.Fail(c, resp.CodeUnavailable, "database unavailable")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", mdw.MetricsHandler())
	r.Static("/uploads", d.UploadDir)

	app := r.Group("")
	app.Use(d.Sessions.Load())
	if d.MaxConcurrency > 0 {
		app.Use(mdw.ConcurrencyLimit(d.MaxConcurrency))
	}
	if d.Timeout > 0 {
		app.Use(mdw.Timeout(d.Timeout))
	}

	authH := handler.NewAuthHandler(d.Accounts, d.Log.Named("auth"))
	catalogH := handler.NewCatalogHandler(d.Catalog, d.Accounts)
	adminH := handler.NewAdminHandler(d.Catalog)

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if d.AuthRPS > 0 {
		limit = mdw.RateLimitPerIP(rate.Limit(d.AuthRPS), d.AuthBurst)
	}
	app.GET("/login", authH.Page)
	app.POST("/login", limit, handler.Action(handler.BackTo("/login"), authH.Login))
	app.GET("/register", authH.Page)
	app.POST("/register", limit, handler.Action(handler.BackTo("/register"), authH.Register))
	app.GET("/logout", authH.Logout)

	app.GET("/", catalogH.Dashboard)
	app.POST("/", catalogH.Dashboard)
	app.GET("/search", catalogH.Search)
	app.POST("/search", catalogH.Search)
	app.GET("/apartment/:id", catalogH.Detail)

	admin := app.Group("/admin", mdw.RequireAdmin(d.Accounts))
	admin.GET("", adminH.Index)
	admin.POST("", adminH.Index)
	admin.GET("/add", adminH.AddPage)
	admin.POST("/add", mdw.MaxBodyBytes(d.MaxUploadBytes), handler.Action(handler.BackTo("/admin/add"), adminH.Add))
	admin.GET("/edit/:id", adminH.EditPage)
	admin.POST("/edit/:id", handler.Action(handler.EditBack, adminH.Edit))
	admin.POST("/delete/:id", handler.Action(handler.BackTo("/admin"), adminH.Delete))

	r.NoRoute(func(c *gin.Context) { resp.Fail(c, resp.CodeNotFound, "not found") })
	return r
}
