package report

import (
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExporter_FormatDispatch(t *testing.T) {
	dir := t.TempDir()

	exp, err := NewExporter("json", filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	require.NoError(t, exp.Close())

	exp, err = NewExporter("pdf", filepath.Join(dir, "out.pdf"))
	require.NoError(t, err)
	require.NoError(t, exp.Close())

	_, err = NewExporter("pdf", "stdout")
	assert.Error(t, err, "pdf cannot stream to stdout")

	_, err = NewExporter("xml", filepath.Join(dir, "out.xml"))
	assert.Error(t, err)
}

func TestJSONExporter_WritesComposedReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	exp, err := NewExporter("json", path)
	require.NoError(t, err)

	composed, err := Compose(fixtureReport())
	require.NoError(t, err)
	require.NoError(t, exp.Export(composed))
	require.NoError(t, exp.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded ComposedReport
	require.NoError(t, jsoniter.Unmarshal(data, &decoded))
	assert.Equal(t, composed.Cover.Title, decoded.Cover.Title)
	assert.Len(t, decoded.Summary.Table, 6)
}

func TestPDFExporter_Reproducible(t *testing.T) {
	dir := t.TempDir()
	composed, err := Compose(fixtureReport())
	require.NoError(t, err)

	paths := []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf")}
	for _, path := range paths {
		exp, err := NewExporter("pdf", path)
		require.NoError(t, err)
		require.NoError(t, exp.Export(composed))
		require.NoError(t, exp.Close())
	}

	first, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	second, err := os.ReadFile(paths[1])
	require.NoError(t, err)

	require.NotEmpty(t, first)
	// Identical input data must produce identical bytes; the only date in the
	// document is the explicit report-date field.
	assert.Equal(t, first, second)
}

func TestPDFExporter_RendersPartialReport(t *testing.T) {
	r := fixtureReport()
	r.Risks = nil
	r.Funding = nil
	r.Policy.LocalRegulations = nil
	r.Policy.InternationalGuidelines = nil

	composed, err := Compose(r)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "partial.pdf")
	exp, err := NewExporter("pdf", path)
	require.NoError(t, err)
	require.NoError(t, exp.Export(composed))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
