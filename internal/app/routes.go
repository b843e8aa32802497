package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	JWTSecret    string
	StaticTokens []string
}

func (a *App) Router(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(a.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := router.Group("/api")
	{
		api.GET("/attendees", a.ListAttendeesHandler)

		meetings := api.Group("/meetings")
		{
			meetings.GET("/availability", a.AvailabilityHandler)
			meetings.POST("", a.CreateMeetingHandler)
			meetings.GET("/:id", a.GetMeetingHandler)
			meetings.GET("/:id/ics", a.MeetingICSHandler)
		}

		admin := api.Group("/meetings", NewAuthenticator(opts.JWTSecret, opts.StaticTokens).Middleware())
		{
			admin.GET("", a.ListMeetingsHandler)
			admin.DELETE("/:id", a.CancelMeetingHandler)
			admin.POST("/:id/calendar-event", a.RetryCalendarEventHandler)
		}
	}
	return router
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
