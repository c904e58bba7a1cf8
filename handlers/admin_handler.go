package handlers

import (
	"log"
	"net/http"

	"claimlens-backend/config"
	"claimlens-backend/logger"
	"claimlens-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler exposes operational endpoints for the admin UI
type AdminHandler struct {
	cfg             *config.Config
	analysisService *service.AnalysisService
	broadcaster     *logger.Broadcaster
	upgrader        websocket.Upgrader
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cfg *config.Config, analysisService *service.AnalysisService, broadcaster *logger.Broadcaster) *AdminHandler {
	return &AdminHandler{
		cfg:             cfg,
		analysisService: analysisService,
		broadcaster:     broadcaster,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// AuthMiddleware checks the admin password against the configured bcrypt hash
func (h *AdminHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cfg.AdminPasswordHash == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin API disabled"})
			return
		}

		password := c.GetHeader("X-Admin-Password")
		if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(password)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	domains, err := h.analysisService.TopDomains(c.Request.Context(), 10)
	if err != nil {
		log.Printf("Warning: failed to load domain stats: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"top_domains": domains,
	})
}

// StreamLogs handles GET /api/admin/logs over a websocket. Browser
// websocket clients cannot set request headers, so the admin credential
// arrives as a token query parameter and is checked before the upgrade.
func (h *AdminHandler) StreamLogs(c *gin.Context) {
	if h.cfg.AdminPasswordHash == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin API disabled"})
		return
	}
	token := c.Query("token")
	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(token)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Warning: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(ch)

	for msg := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return
		}
	}
}
