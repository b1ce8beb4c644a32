package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	"github.com/noah-isme/siapptn-tryout-api/internal/service"
	"github.com/noah-isme/siapptn-tryout-api/pkg/jobs"
	"github.com/noah-isme/siapptn-tryout-api/pkg/response"
)

type ingestionService interface {
	Ingest(ctx context.Context, tryoutID string) (int64, error)
}

type rankingProcessor interface {
	Process(ctx context.Context, tryoutID string) (*models.ProcessResult, error)
}

type processQueue interface {
	Submit(ctx context.Context, tryoutID, requestedBy string) (string, error)
	Status(jobID string) (*jobs.State, error)
}

// TryoutHandler exposes answer ingestion and ranking processing.
type TryoutHandler struct {
	ingestion ingestionService
	ranking   rankingProcessor
	queue     processQueue
}

// NewTryoutHandler builds a new handler. queue may be nil when async processing is disabled.
func NewTryoutHandler(ingestion ingestionService, ranking rankingProcessor, queue processQueue) *TryoutHandler {
	return &TryoutHandler{ingestion: ingestion, ranking: ranking, queue: queue}
}

// Ingest godoc
// @Summary Flatten stored answer batches into per-question answers
// @Tags Tryout
// @Produce json
// @Param id_tryout path string true "Tryout ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /simpan-jawaban-user/{id_tryout} [post]
func (h *TryoutHandler) Ingest(c *gin.Context) {
	inserted, err := h.ingestion.Ingest(c.Request.Context(), c.Param("id_tryout"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"inserted": inserted})
}

// Process godoc
// @Summary Recompute ranking and review snapshots for a tryout
// @Tags Tryout
// @Produce json
// @Param idTryout path string true "Tryout ID"
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /process-tryout/{idTryout} [post]
func (h *TryoutHandler) Process(c *gin.Context) {
	tryoutID := c.Param("idTryout")
	if _, err := h.ranking.Process(c.Request.Context(), tryoutID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, service.ProcessedMessage(tryoutID))
}

// ProcessAsync godoc
// @Summary Queue a ranking run for a tryout
// @Tags Tryout
// @Produce json
// @Param idTryout path string true "Tryout ID"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /process-tryout/{idTryout}/async [post]
func (h *TryoutHandler) ProcessAsync(c *gin.Context) {
	if h.queue == nil {
		c.Status(http.StatusNotFound)
		return
	}
	jobID, err := h.queue.Submit(c.Request.Context(), c.Param("idTryout"), requesterID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"jobId": jobID})
}

// JobStatus godoc
// @Summary Show the progress of a queued ranking run
// @Tags Tryout
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /process-tryout/jobs/{jobId} [get]
func (h *TryoutHandler) JobStatus(c *gin.Context) {
	if h.queue == nil {
		c.Status(http.StatusNotFound)
		return
	}
	state, err := h.queue.Status(c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, state)
}
