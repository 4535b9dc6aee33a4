package controllers

import (
	"context"
	"net/http"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthResponse struct {
	Status string `json:"status"`
}

type HealthController struct {
	db     Pinger
	logger *zap.Logger
}

func NewHealthController(db Pinger, logger *zap.Logger) *HealthController {
	return &HealthController{db: db, logger: logger}
}

func (ctl *HealthController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/healthz").Produces(restful.MIME_JSON)
	ws.Route(ws.GET("").To(ctl.healthHandler).
		Doc("Liveness and database readiness").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "OK", HealthResponse{}).
		Returns(http.StatusServiceUnavailable, "Database unreachable", HealthResponse{}))
}

func (ctl *HealthController) healthHandler(request *restful.Request, response *restful.Response) {
	ctx, cancel := context.WithTimeout(request.Request.Context(), 2*time.Second)
	defer cancel()

	if err := ctl.db.PingContext(ctx); err != nil {
		ctl.logger.Warn("Health check failed", zap.Error(err))
		_ = response.WriteHeaderAndJson(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"}, restful.MIME_JSON)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, HealthResponse{Status: "ok"}, restful.MIME_JSON)
}
