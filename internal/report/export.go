// File: internal/report/export.go
package report

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Exporter writes a composed report to an output in a specific format.
type Exporter interface {
	// Export serializes the composed report.
	Export(composed *ComposedReport) error
	// Close finalizes the artifact and releases any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error { return nil }

// NewExporter creates an exporter for the given format and output path. An
// empty path or "stdout" writes to standard output (json only; the pdf format
// requires a file path).
func NewExporter(format, outputPath string) (Exporter, error) {
	isStdout := outputPath == "" || outputPath == "stdout"

	switch format {
	case "json":
		var writer io.WriteCloser
		if isStdout {
			writer = &nopWriteCloser{os.Stdout}
		} else {
			f, err := os.Create(outputPath)
			if err != nil {
				return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
			}
			writer = f
		}
		return &jsonExporter{w: writer}, nil
	case "pdf":
		if isStdout {
			return nil, fmt.Errorf("pdf export requires an output file path")
		}
		return newPDFExporter(outputPath), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

type jsonExporter struct {
	w io.WriteCloser
}

func (e *jsonExporter) Export(composed *ComposedReport) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(e.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(composed); err != nil {
		return fmt.Errorf("failed to encode report JSON: %w", err)
	}
	return nil
}

func (e *jsonExporter) Close() error { return e.w.Close() }
