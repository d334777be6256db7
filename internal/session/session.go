package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	constants "github.com/CodeAndHammer/whackamole/internal/constants"
	game "github.com/CodeAndHammer/whackamole/internal/game"
	models "github.com/CodeAndHammer/whackamole/internal/models"
	util "github.com/CodeAndHammer/whackamole/internal/util"
)

func GetOrCreateSession(app *models.App, c *gin.Context) string {
	sessionID, err := c.Cookie(constants.SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.Config.Production
		c.SetCookie(constants.SessionCookieName, sessionID, int(app.Config.CookieMaxAge.Seconds()), "/", "", secure, true)
		util.LogInfo("%sCreated new session: %s", util.RequestPrefix(c.Request.Context()), sessionID)
	}
	return sessionID
}

// GetGame returns the session's game, creating one on first use.
func GetGame(app *models.App, ctx context.Context, sessionID string) (*game.Game, error) {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	if entry, ok := app.Sessions[sessionID]; ok {
		entry.LastAccessTime = time.Now()
		return entry.Game, nil
	}

	g, err := app.NewGame()
	if err != nil {
		return nil, err
	}
	app.Sessions[sessionID] = &models.SessionEntry{Game: g, LastAccessTime: time.Now()}
	util.LogInfo("%sCreated new game for session: %s", util.RequestPrefix(ctx), sessionID)
	return g, nil
}

// CleanupExpiredSessions stops and drops games idle longer than the session TTL.
func CleanupExpiredSessions(app *models.App) int {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	cutoff := time.Now().Add(-app.Config.SessionTTL)
	expiredCount := 0
	for sessionID, entry := range app.Sessions {
		if entry.LastAccessTime.Before(cutoff) {
			entry.Game.Stop()
			delete(app.Sessions, sessionID)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		util.LogInfo("Cleaned up %d expired session%s", expiredCount, util.Plural(expiredCount))
	}
	return expiredCount
}

// StopAll stops every running game, used on shutdown.
func StopAll(app *models.App) {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	for _, entry := range app.Sessions {
		entry.Game.Stop()
	}
}

func StartSessionCleanup(ctx context.Context, app *models.App) {
	ticker := time.NewTicker(10 * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CleanupExpiredSessions(app)
			}
		}
	}()
	util.LogInfo("Started session cleanup goroutine")
}
