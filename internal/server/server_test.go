package server_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/CodeAndHammer/whackamole/internal/config"
	models "github.com/CodeAndHammer/whackamole/internal/models"
	server "github.com/CodeAndHammer/whackamole/internal/server"
)

func newApp(production bool) *models.App {
	cfg := config.Default()
	cfg.Production = production
	cfg.StaticCacheAge = 5 * time.Minute
	return models.NewApp(cfg)
}

func serve(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func newRouter(t *testing.T, app *models.App) *gin.Engine {
	t.Helper()
	router, err := server.NewRouter(app)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })
	return router
}

func TestProductionCacheHeaders(t *testing.T) {
	router := newRouter(t, newApp(true))

	rec := serve(t, router, "/static/css/styles.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET styles.css = %d", rec.Code)
	}
	cc := rec.Header().Get("Cache-Control")
	if !strings.Contains(cc, "public") || !strings.Contains(cc, "max-age=300") {
		t.Errorf("static Cache-Control = %q", cc)
	}
	if rec.Header().Get("Vary") != "Accept-Encoding" {
		t.Errorf("static Vary = %q", rec.Header().Get("Vary"))
	}

	rec = serve(t, router, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("page Cache-Control = %q", cc)
	}
}

func TestDevelopmentStaticNotCached(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newRouter(t, newApp(false))
	rec := serve(t, router, "/static/css/styles.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET styles.css = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProductionServesDistAssets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dist", "templates", "index.html"), `<p>dist {{.title}}</p>`)
	writeFile(t, filepath.Join(dir, "dist", "templates", "partials", "board.html"), `{{define "board"}}board{{end}}`)
	writeFile(t, filepath.Join(dir, "dist", "static", "css", "styles.css"), `body{}`)
	chdir(t, dir)

	router := newRouter(t, newApp(true))

	rec := serve(t, router, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "dist Whack-a-mole") {
		t.Errorf("GET / = %d %q", rec.Code, rec.Body.String())
	}
	rec = serve(t, router, "/static/css/styles.css")
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Errorf("GET styles.css = %d %q", rec.Code, rec.Body.String())
	}
}

func TestProductionWithoutDistFallsBackToEmbedded(t *testing.T) {
	chdir(t, t.TempDir())
	router := newRouter(t, newApp(true))
	if rec := serve(t, router, "/"); !strings.Contains(rec.Body.String(), `id="startGame"`) {
		t.Errorf("embedded page not served: %d", rec.Code)
	}
}
