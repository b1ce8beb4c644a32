package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	"github.com/noah-isme/siapptn-tryout-api/internal/service"
	"github.com/noah-isme/siapptn-tryout-api/pkg/response"
)

type rankingReader interface {
	List(ctx context.Context, tryoutID string) ([]models.RankingView, error)
}

type rankingExporter interface {
	ExportRanking(ctx context.Context, tryoutID, format string) (*service.ExportFile, error)
}

// RankingHandler serves computed rankings.
type RankingHandler struct {
	reader   rankingReader
	exporter rankingExporter
}

// NewRankingHandler builds a new handler.
func NewRankingHandler(reader rankingReader, exporter rankingExporter) *RankingHandler {
	return &RankingHandler{reader: reader, exporter: exporter}
}

// List godoc
// @Summary Ranking of a tryout
// @Tags Ranking
// @Produce json
// @Param idTryout path string true "Tryout ID"
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /ranking/{idTryout} [get]
func (h *RankingHandler) List(c *gin.Context) {
	rows, err := h.reader.List(c.Request.Context(), c.Param("idTryout"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, rows)
}

// Export godoc
// @Summary Download the ranking of a tryout
// @Tags Ranking
// @Produce text/csv
// @Produce application/pdf
// @Param idTryout path string true "Tryout ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /ranking/{idTryout}/export [get]
func (h *RankingHandler) Export(c *gin.Context) {
	file, err := h.exporter.ExportRanking(c.Request.Context(), c.Param("idTryout"), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
