package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	"github.com/noah-isme/siapptn-tryout-api/pkg/jobs"
)

func newTestEngine(logger *zap.Logger, protect ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	Routes{
		Tryout:  NewTryoutHandler(&ingestionServiceMock{inserted: 1}, &rankingProcessorMock{}, &processQueueMock{jobID: "j1", state: &jobs.State{ID: "j1"}}),
		Ranking: NewRankingHandler(rankingReaderMock{rows: []models.RankingView{}}, &rankingExporterMock{}),
		Metrics: NewMetricsHandler(nil, pingerStub{}),
		Logger:  logger,
	}.Register(engine, "/api/v1", protect...)
	return engine
}

func TestRoutesMountedAtRootAndPrefix(t *testing.T) {
	engine := newTestEngine(nil)
	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/simpan-jawaban-user/5", http.StatusOK},
		{http.MethodPost, "/api/v1/simpan-jawaban-user/5", http.StatusOK},
		{http.MethodPost, "/process-tryout/5", http.StatusOK},
		{http.MethodPost, "/api/v1/process-tryout/5/async", http.StatusAccepted},
		{http.MethodGet, "/process-tryout/jobs/j1", http.StatusOK},
		{http.MethodGet, "/ranking/5", http.StatusOK},
		{http.MethodGet, "/api/v1/ranking/5", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.status, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRoutesProtectOnlyMutatingRoutes(t *testing.T) {
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	core, logs := observer.New(zap.InfoLevel)
	engine := newTestEngine(zap.New(core), deny)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/process-tryout/5", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ranking/5", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterLoggerName("audit").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "tryout action failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "ranking.process", fields["action"])
	assert.Equal(t, "anonymous", fields["actor"])
	assert.Equal(t, "5", fields["tryout_id"])
	assert.EqualValues(t, http.StatusUnauthorized, fields["status"])
}
