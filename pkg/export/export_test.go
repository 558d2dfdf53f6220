package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:    "Attendance report",
		Subtitle: "Resume clinic · 2026-10-17 10:00",
		Headers:  []string{"Name", "Batch", "Will Attend"},
		Rows: []map[string]string{
			{"Name": "Asha", "Batch": "E-2", "Will Attend": "Yes"},
			{"Name": "Ravi, K", "Batch": "E-2", "Will Attend": "No response"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Name,Batch,Will Attend\nAsha,E-2,Yes\n\"Ravi, K\",E-2,No response\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("xlsx")
	require.Error(t, err)
}

func TestRegistryFor(t *testing.T) {
	r := DefaultRegistry()
	renderer, err := r.For(FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "pdf", renderer.Extension())

	_, err = Registry{}.For(FormatCSV)
	require.Error(t, err)
}
