package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/psds-microservice/helpy/paths"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/sst-resolve/resolve-bot/api"
	"github.com/sst-resolve/resolve-bot/internal/handler"
)

const (
	PathWebhook      = "/webhook"
	PathSlackActions = "/slack/actions"
	PathMetrics      = "/metrics"

	HeaderRequestID = "X-Request-ID"
)

type Handlers struct {
	Health       *handler.HealthHandler
	Webhook      *handler.WebhookHandler
	Tickets      *handler.TicketHandler
	Students     *handler.StudentHandler
	SlackActions *handler.SlackActionsHandler
}

func New(h Handlers, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(log))
	r.GET(paths.PathHealth, h.Health.Health)
	r.GET(paths.PathReady, h.Health.Ready)
	r.GET(PathMetrics, gin.WrapH(promhttp.Handler()))
	r.GET(paths.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, paths.PathSwagger+"/") })
	r.GET(paths.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = paths.PathSwagger + "/index.html"
			c.Request.RequestURI = paths.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(paths.PathSwagger+"/openapi.json"))(c)
	})

	r.POST(PathWebhook, h.Webhook.Receive)
	r.POST(PathSlackActions, h.SlackActions.Handle)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/tickets", h.Tickets.List)
		v1.GET("/tickets/:id", h.Tickets.Get)
		v1.PUT("/tickets/:id", h.Tickets.Update)
		v1.GET("/students/:user_id", h.Students.Get)
		v1.PATCH("/students/:user_id", h.Students.Patch)
	}

	return r
}

// requestID keeps the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == paths.PathHealth || path == paths.PathReady || path == PathMetrics {
			return
		}
		log.Info("http request",
			zap.String("request_id", c.GetString(HeaderRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
