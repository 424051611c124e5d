package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"production-assistant/backend/internal/cache"
	"production-assistant/backend/internal/config"
	"production-assistant/backend/internal/database"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	pool   *database.DatabasePool
	cache  *cache.RedisCache // nil when Redis is disabled
	cfg    *config.Config
	logger *slog.Logger
}

func NewHealthHandler(pool *database.DatabasePool, redisCache *cache.RedisCache, cfg *config.Config, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{pool: pool, cache: redisCache, cfg: cfg, logger: logger}
}

// Health reports store reachability and whether external credentials are
// present. Only boolean "configured" flags are exposed, never the values.
func (h *HealthHandler) Health(c *gin.Context) {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	if err := h.pool.Ping(); err != nil {
		h.logger.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     "database unreachable",
			"timestamp": timestamp,
		})
		return
	}

	openaiStatus := "not configured"
	if h.cfg.OpenAIConfigured() {
		openaiStatus = "configured"
	}
	slackStatus := "not configured"
	if h.cfg.SlackConfigured() {
		slackStatus = "configured"
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		if err := h.cache.Health(); err != nil {
			cacheStatus = "degraded"
		} else {
			cacheStatus = "connected"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": timestamp,
		"database":  "connected",
		"cache":     cacheStatus,
		"openai":    openaiStatus,
		"slack":     slackStatus,
	})
}

const homePage = `<h1>AI Production Assistant</h1>
<p>Status: <span style="color: green;">Running</span></p>
<h2>Available Endpoints:</h2>
<ul>
    <li><strong>GET /health</strong> - Health check</li>
    <li><strong>GET /metrics</strong> - Request metrics</li>
    <li><strong>POST /slack/events</strong> - Slack event webhooks</li>
    <li><strong>POST /slack/commands</strong> - Slack slash commands</li>
    <li><strong>GET /tasks</strong> - Get all tasks</li>
    <li><strong>POST /tasks</strong> - Create new task</li>
    <li><strong>POST /chat</strong> - Chat with AI assistant</li>
</ul>
`

func (h *HealthHandler) Home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(homePage))
}
