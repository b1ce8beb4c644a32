package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	"github.com/noah-isme/siapptn-tryout-api/internal/service"
	appErrors "github.com/noah-isme/siapptn-tryout-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
	token  string
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	v.token = token
	if v.claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func newProtectedRouter(v *validatorStub, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/process-tryout/:idTryout", JWT(v), RequireRoles(roles...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/process-tryout/5", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	w := serve(newProtectedRouter(&validatorStub{}, models.RoleAdmin), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"unauthorized"}`, w.Body.String())
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	w := serve(newProtectedRouter(&validatorStub{}, models.RoleAdmin), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid authorization header")
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	v := &validatorStub{}
	w := serve(newProtectedRouter(v, models.RoleAdmin), "Bearer expired")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "expired", v.token)
}

func TestRequireRolesAllowsAndForbids(t *testing.T) {
	v := &validatorStub{claims: &models.JWTClaims{UserID: "scheduler", Role: models.RoleOperator}}

	w := serve(newProtectedRouter(v, models.RoleAdmin, models.RoleOperator), "bearer good")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(newProtectedRouter(v, models.RoleAdmin), "Bearer good")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/ranking/:idTryout", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/ranking/5", "/ranking/6", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",path="/ranking/:idTryout",status="200"} 2`))
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",path="unmatched",status="404"} 1`))
}

func TestAuditRecordsAuthenticatedActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	v := &validatorStub{claims: &models.JWTClaims{UserID: "op-1", Role: models.RoleOperator}}
	r := gin.New()
	r.POST("/process-tryout/:idTryout", Audit(zap.New(core), "ranking.process"), JWT(v), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	serve(r, "Bearer good")

	entries := logs.FilterLoggerName("audit").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "tryout action", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "op-1", fields["actor"])
	assert.Equal(t, "5", fields["tryout_id"])
}
