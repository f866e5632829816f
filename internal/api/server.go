// internal/api/server.go
package api

import (
	"context"
	"net/http"

	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/observability"
	llmproxy "econest-automation/internal/workers/ai/llm-proxy"
	leadworkflow "econest-automation/internal/workers/leads/lead-workflow"
	n8ncallback "econest-automation/internal/workers/leads/n8n-callback"
	detectintent "econest-automation/internal/workers/spade/detect-intent"
	evaluatepolicy "econest-automation/internal/workers/spade/evaluate-policy"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP surface's collaborators. The webhook endpoints
// call the same handlers the Zeebe workers use.
type Handlers struct {
	Leads     *leadworkflow.Handler
	Callbacks *n8ncallback.Handler
	LLM       *llmproxy.Handler
	Policy    *evaluatepolicy.Handler
	Intent    *detectintent.Handler
	Store     Pinger
	Logger    logger.Logger
}

// NewRouter builds the gin engine with middleware and routes registered.
func NewRouter(h Handlers, obs *observability.Observability) *gin.Engine {
	if h.Logger == nil {
		h.Logger = logger.NewNoOpLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(h.Logger))
	r.Use(CORS())
	r.Use(RequestMetrics(obs))

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	fn := r.Group("/functions/v1")
	{
		fn.POST("/lead-workflow", h.LeadWorkflow)
		fn.POST("/n8n-callback", h.N8NCallback)
		fn.POST("/ai-chat", h.AIChat)
		fn.POST("/generate-sop", h.GenerateSOP)
		fn.POST("/spade/evaluate", h.EvaluatePolicy)
		fn.POST("/spade/intent", h.DetectIntent)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	})
	return r
}
