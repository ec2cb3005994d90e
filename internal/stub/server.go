package stub

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"ridepool/internal/config"
)

// NewRouter wires the chat contract onto a gin engine. Tokens is the
// set of accepted bearer credentials.
func NewRouter(state *State, hub *Hub, tokens []string, logger *slog.Logger) *gin.Engine {
	allowed := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		allowed[tok] = struct{}{}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/live", hub.Handle(allowed))

	authed := router.Group("/")
	authed.Use(requireBearer(allowed))

	authed.GET("/conversations/:page", func(c *gin.Context) {
		page := parsePage(c.Param("page"))
		c.JSON(http.StatusOK, state.ListConversations(page))
	})

	authed.GET("/messages/:id/:page", func(c *gin.Context) {
		messages, err := state.ListMessages(c.Param("id"), parsePage(c.Param("page")))
		if err != nil {
			respondStateError(c, err)
			return
		}
		c.JSON(http.StatusOK, messages)
	})

	authed.POST("/messages/:id", func(c *gin.Context) {
		var req struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		req.Content = strings.TrimSpace(req.Content)
		if req.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}
		message, err := state.AddMessage(c.Param("id"), req.Content)
		if err != nil {
			respondStateError(c, err)
			return
		}
		if logger != nil {
			logger.Info("message stored", "reservation_id", message.ReservationID, "message_id", message.ID)
		}
		c.JSON(http.StatusCreated, message)
	})

	authed.PUT("/messages/mark-as-seen/:id", func(c *gin.Context) {
		state.MarkSeen(c.Param("id"))
		c.Status(http.StatusNoContent)
	})

	authed.PUT("/messages/mark-all-as-seen/:id", func(c *gin.Context) {
		if err := state.MarkAllSeen(c.Param("id")); err != nil {
			respondStateError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	// Stub-only lever: scripts a payment outcome onto the live channel.
	authed.POST("/internal/payment-events/:id/:status", func(c *gin.Context) {
		hub.EmitStatus(c.Param("id"), c.Param("status"))
		c.Status(http.StatusAccepted)
	})

	return router
}

// NewServer builds the ridepoold HTTP server around the router.
func NewServer(cfg config.Config, router *gin.Engine, logger *slog.Logger) *http.Server {
	mode := configureGinMode(cfg.Env)
	if logger != nil {
		logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func requireBearer(tokens map[string]struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if _, known := tokens[token]; !known {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

func respondStateError(c *gin.Context, err error) {
	if errors.Is(err, ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
