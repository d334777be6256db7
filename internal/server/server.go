package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	constants "github.com/CodeAndHammer/whackamole/internal/constants"
	handlers "github.com/CodeAndHammer/whackamole/internal/handlers"
	middleware "github.com/CodeAndHammer/whackamole/internal/middleware"
	models "github.com/CodeAndHammer/whackamole/internal/models"
	session "github.com/CodeAndHammer/whackamole/internal/session"
	util "github.com/CodeAndHammer/whackamole/internal/util"
	"github.com/CodeAndHammer/whackamole/web"
)

// NewRouter wires middleware, templates, static assets and routes.
func NewRouter(app *models.App) (*gin.Engine, error) {
	if app.Config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CSRF(app))
	router.Use(middleware.ValidateCSRF())

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		applyCacheHeaders(app, c)
	})

	funcMap := template.FuncMap{"hasPrefix": strings.HasPrefix}
	if app.Config.Production && util.DirExists("dist") {
		util.LogInfo("Serving assets from dist/ directory")
		master := template.New("").Funcs(funcMap)
		if _, err := master.ParseGlob(filepath.Join("dist", "templates", "*.html")); err != nil {
			return nil, fmt.Errorf("parse dist templates: %w", err)
		}
		if _, err := master.ParseGlob(filepath.Join("dist", "templates", "partials", "*.html")); err != nil {
			return nil, fmt.Errorf("parse dist partials: %w", err)
		}
		router.SetHTMLTemplate(master)
		router.Static("/static", "./dist/static")
	} else {
		master, err := web.Templates(funcMap)
		if err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
		router.SetHTMLTemplate(master)
		static, err := web.Static()
		if err != nil {
			return nil, fmt.Errorf("static assets: %w", err)
		}
		router.StaticFS("/static", http.FS(static))
	}

	limited := middleware.RateLimit(app)
	router.GET(constants.RouteHome, func(c *gin.Context) { handlers.HomeHandler(app, c) })
	router.POST(constants.RouteStart, limited, func(c *gin.Context) { handlers.StartHandler(app, c) })
	router.POST(constants.RouteWhack, limited, func(c *gin.Context) { handlers.WhackHandler(app, c) })
	router.GET(constants.RouteGameState, func(c *gin.Context) { handlers.GameStateHandler(app, c) })
	router.GET(constants.RouteHealthz, func(c *gin.Context) { handlers.HealthzHandler(app, c) })

	return router, nil
}

func applyCacheHeaders(app *models.App, c *gin.Context) {
	if app.Config.Production && strings.HasPrefix(c.Request.URL.Path, "/static/") {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(app.Config.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}

// Run serves until SIGINT/SIGTERM, then stops every game and shuts down.
func Run(app *models.App) error {
	router, err := NewRouter(app)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	startCleanupRoutines(ctx, app)

	srv := &http.Server{
		Addr:              ":" + app.Config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		util.LogInfo("Server starting on http://localhost:%s", app.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
	}

	session.StopAll(app)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.LogWarn("HTTP server Shutdown: %v", err)
	}
	util.LogInfo("Server shutdown complete")
	return nil
}

func startCleanupRoutines(ctx context.Context, app *models.App) {
	session.StartSessionCleanup(ctx, app)

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				middleware.CleanupStaleRateLimiters(app)
			}
		}
	}()

	util.LogInfo("Started cleanup routines for sessions and rate limiters")
}

