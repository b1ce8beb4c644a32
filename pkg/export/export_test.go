package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"Rank", "Username", "Institution"},
		Rows: [][]string{
			{"1", "ayu", "SMAN 1, Bandung"},
			{"2", "bima"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rank,Username,Institution\n1,ayu,\"SMAN 1, Bandung\"\n2,bima,\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(Dataset{
		Headers: []string{"Rank", "Username"},
		Rows:    [][]string{{"1", "ayu"}, {"2", "bima"}},
	}, "Ranking Tryout 5", 1, 3)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestColumnWidths(t *testing.T) {
	assert.Equal(t, []float64{landscapeWidth / 2, landscapeWidth / 2}, columnWidths(2, nil))
	widths := columnWidths(2, []float64{1, 3})
	assert.InDelta(t, landscapeWidth/4, widths[0], 1e-9)
	assert.InDelta(t, landscapeWidth*3/4, widths[1], 1e-9)
	assert.Equal(t, []float64{landscapeWidth / 2, landscapeWidth / 2}, columnWidths(2, []float64{1, 0}))
}
