package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/siapptn-tryout-api/internal/middleware"
)

// Routes groups the handlers mounted by the API server.
type Routes struct {
	Tryout  *TryoutHandler
	Ranking *RankingHandler
	Metrics *MetricsHandler
	Logger  *zap.Logger
}

// Register mounts health checks and metrics on the engine and the tryout API both at the root,
// where existing clients call it, and under prefix. protect guards the mutating routes.
func (r Routes) Register(engine *gin.Engine, prefix string, protect ...gin.HandlerFunc) {
	engine.GET("/health", r.Metrics.Health)
	engine.GET("/ready", r.Metrics.Ready)
	engine.GET("/metrics", r.Metrics.Prometheus)

	r.mount(engine.Group("/"), protect)
	if prefix != "" && prefix != "/" {
		r.mount(engine.Group(prefix), protect)
	}
}

func (r Routes) mount(group *gin.RouterGroup, protect []gin.HandlerFunc) {
	group.POST("/simpan-jawaban-user/:id_tryout", r.guarded("answers.ingest", protect, r.Tryout.Ingest)...)
	group.POST("/process-tryout/:idTryout", r.guarded("ranking.process", protect, r.Tryout.Process)...)
	group.POST("/process-tryout/:idTryout/async", r.guarded("ranking.enqueue", protect, r.Tryout.ProcessAsync)...)
	group.GET("/process-tryout/jobs/:jobId", append(append([]gin.HandlerFunc{}, protect...), r.Tryout.JobStatus)...)

	group.GET("/ranking/:idTryout", r.Ranking.List)
	group.GET("/ranking/:idTryout/export", r.Ranking.Export)
}

// guarded places the audit recorder ahead of protect so rejected attempts are recorded too.
func (r Routes) guarded(action string, protect []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(protect)+2)
	chain = append(chain, middleware.Audit(r.Logger, action))
	chain = append(chain, protect...)
	return append(chain, h)
}
