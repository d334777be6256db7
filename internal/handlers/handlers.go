package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	constants "github.com/CodeAndHammer/whackamole/internal/constants"
	difficulty "github.com/CodeAndHammer/whackamole/internal/difficulty"
	game "github.com/CodeAndHammer/whackamole/internal/game"
	models "github.com/CodeAndHammer/whackamole/internal/models"
	session "github.com/CodeAndHammer/whackamole/internal/session"
	util "github.com/CodeAndHammer/whackamole/internal/util"
)

const pageTitle = "Whack-a-mole"

func currentGame(app *models.App, c *gin.Context) (*game.Game, bool) {
	sessionID := session.GetOrCreateSession(app, c)
	g, err := session.GetGame(app, c.Request.Context(), sessionID)
	if err != nil {
		util.LogWarn("%sFailed to create game for session %s: %v", util.RequestPrefix(c.Request.Context()), sessionID, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "game unavailable"})
		return nil, false
	}
	return g, true
}

// renderBoard answers with the board partial, or JSON when the client asks
// for it. Error codes ride along in HX-Trigger for htmx.
func renderBoard(c *gin.Context, g *game.Game, errCode string) {
	snap := g.Snapshot()
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		status := http.StatusOK
		if errCode != "" {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"game": snap, "error_code": errCode})
		return
	}
	if errCode != "" {
		payload := map[string]string{"server_error_code": errCode}
		if b, jerr := json.Marshal(payload); jerr == nil {
			c.Header("HX-Trigger", string(b))
		} else {
			util.LogWarn("Failed to marshal HX-Trigger payload: %v", jerr)
		}
	}
	c.HTML(http.StatusOK, "board", gin.H{
		"game":       snap,
		"error_code": errCode,
	})
}

func HomeHandler(app *models.App, c *gin.Context) {
	g, ok := currentGame(app, c)
	if !ok {
		return
	}
	csrfToken := c.GetString(constants.CSRFCookieName)
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":      pageTitle,
		"message":    "Whack the moles before time runs out!",
		"game":       g.Snapshot(),
		"levels":     difficulty.Levels,
		"csrf_token": csrfToken,
	})
}

// StartHandler (re)starts the session's game, applying the posted difficulty.
func StartHandler(app *models.App, c *gin.Context) {
	g, ok := currentGame(app, c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if label := c.PostForm("difficulty"); label != "" {
		if err := g.SetDifficulty(label); err != nil {
			util.LogWarn("%sRejected difficulty %q: %v", util.RequestPrefix(ctx), label, err)
			renderBoard(c, g, constants.ErrorCodeInvalidDifficulty)
			return
		}
	}
	if err := g.Start(); err != nil {
		util.LogWarn("%sFailed to start game: %v", util.RequestPrefix(ctx), err)
		renderBoard(c, g, constants.ErrorCodeStartFailed)
		return
	}
	renderBoard(c, g, "")
}

func WhackHandler(app *models.App, c *gin.Context) {
	g, ok := currentGame(app, c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	index, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		renderBoard(c, g, constants.ErrorCodeUnknownSlot)
		return
	}
	hit, err := g.Whack(index)
	if errors.Is(err, game.ErrUnknownSlot) {
		util.LogWarn("%sWhack on unknown slot %d", util.RequestPrefix(ctx), index)
		renderBoard(c, g, constants.ErrorCodeUnknownSlot)
		return
	}
	if hit {
		util.LogDebug("%sHit slot %d", util.RequestPrefix(ctx), index)
	}
	renderBoard(c, g, "")
}

func GameStateHandler(app *models.App, c *gin.Context) {
	g, ok := currentGame(app, c)
	if !ok {
		return
	}
	renderBoard(c, g, "")
}

func HealthzHandler(app *models.App, c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(app.StartTime)

	app.SessionMutex.RLock()
	sessionCount := len(app.Sessions)
	activeGames := 0
	for _, entry := range app.Sessions {
		if entry.Game.State().Active {
			activeGames++
		}
	}
	app.SessionMutex.RUnlock()

	app.LimiterMutex.RLock()
	limiterCount := len(app.LimiterMap)
	app.LimiterMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"env":             map[bool]string{true: "production", false: "development"}[app.Config.Production],
		"slots":           app.Config.Slots,
		"duration":        app.Config.Duration,
		"difficulty":      app.Config.Difficulty,
		"active_sessions": sessionCount,
		"active_games":    activeGames,
		"active_limiters": limiterCount,
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(uptime),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}
