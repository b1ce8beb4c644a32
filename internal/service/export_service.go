package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	appErrors "github.com/noah-isme/siapptn-tryout-api/pkg/errors"
	"github.com/noah-isme/siapptn-tryout-api/pkg/export"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var rankingExportHeaders = []string{"Rank", "User ID", "Username", "Peminatan", "Total", "Instansi", "Provinsi"}

var rankingExportWeights = []float64{1, 2, 3, 2, 1.5, 4, 3}

type rankingLister interface {
	List(ctx context.Context, tryoutID string) ([]models.RankingView, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, weights ...float64) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders a tryout ranking as CSV or PDF.
type ExportService struct {
	rankings rankingLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to pkg/export.
func NewExportService(rankings rankingLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{rankings: rankings, csv: csv, pdf: pdf, logger: logger}
}

// ExportRanking renders the tryout ranking in the requested format.
func (s *ExportService) ExportRanking(ctx context.Context, tryoutID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	rows, err := s.rankings.List(ctx, tryoutID)
	if err != nil {
		return nil, err
	}
	dataset := rankingDataset(rows)
	filename := fmt.Sprintf("ranking-tryout-%s.%s", sanitizeFilename(tryoutID), format)

	var (
		content     []byte
		contentType string
	)
	switch format {
	case ExportFormatPDF:
		content, err = s.pdf.Render(dataset, "Ranking Tryout "+tryoutID, rankingExportWeights...)
		contentType = "application/pdf"
	default:
		content, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		s.logger.Error("ranking export failed", zap.String("tryout_id", tryoutID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render ranking export")
	}

	return &ExportFile{Filename: filename, ContentType: contentType, Content: content}, nil
}

func rankingDataset(rows []models.RankingView) export.Dataset {
	data := export.Dataset{Headers: rankingExportHeaders, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		province := strconv.FormatInt(row.RegionID, 10)
		if row.ProvinceName != nil && *row.ProvinceName != "" {
			province = *row.ProvinceName
		}
		track := ""
		if row.Track != nil {
			track = *row.Track
		}
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(row.Rank),
			row.UserID,
			row.Username,
			track,
			strconv.FormatFloat(row.Total, 'f', 2, 64),
			row.Institution,
			province,
		})
	}
	return data
}

func sanitizeFilename(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, value)
}
