// File: internal/report/pdf.go
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/hverdane/ecoestate/internal/score"
)

// pdfExporter serializes a composed report into the paginated, fixed-layout
// document artifact. Output is byte-reproducible for identical input: the PDF
// creation date is pinned so only the explicit report-date field varies.
type pdfExporter struct {
	path string
}

func newPDFExporter(path string) *pdfExporter {
	return &pdfExporter{path: path}
}

func (e *pdfExporter) Close() error { return nil }

const (
	pageMargin = 15.0
	bodyWidth  = 180.0
)

func (e *pdfExporter) Export(composed *ComposedReport) error {
	pdf := e.render(composed)
	if err := pdf.OutputFileAndClose(e.path); err != nil {
		return fmt.Errorf("failed to write PDF report: %w", err)
	}
	return nil
}

// WritePDF renders the composed report and streams the document to w. It is
// the writer-based counterpart of the pdf exporter used by HTTP handlers.
func WritePDF(w io.Writer, composed *ComposedReport) error {
	pdf := (&pdfExporter{}).render(composed)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF report: %w", err)
	}
	return nil
}

func (e *pdfExporter) render(composed *ComposedReport) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Pinned metadata date keeps identical inputs producing identical bytes.
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetModificationDate(time.Unix(0, 0).UTC())
	pdf.SetTitle(composed.Cover.Title, true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	e.coverPage(pdf, composed.Cover)
	e.summaryPage(pdf, composed.Summary)
	e.assessmentPage(pdf, composed.Categories)
	e.riskPage(pdf, composed.Risks, composed.Feasibility)
	e.policyPage(pdf, composed.Policy, composed.Funding)
	e.appendixPage(pdf, composed.Appendix)
	return pdf
}

func (e *pdfExporter) coverPage(pdf *fpdf.Fpdf, c Cover) {
	pdf.AddPage()
	pdf.SetY(70)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.MultiCell(bodyWidth, 12, c.Title, "", "C", false)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(bodyWidth, 8, c.Subtitle, "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(bodyWidth, 7, c.Place, "", 1, "C", false, 0, "")
	pdf.CellFormat(bodyWidth, 7, fmt.Sprintf("%.5f, %.5f", c.Latitude, c.Longitude), "", 1, "C", false, 0, "")
	pdf.CellFormat(bodyWidth, 7, "Report date: "+c.ReportDate, "", 1, "C", false, 0, "")
	pdf.Ln(14)

	r, g, b := bandRGB(c.Band)
	pdf.SetTextColor(r, g, b)
	pdf.SetFont("Helvetica", "B", 30)
	pdf.CellFormat(bodyWidth, 14, fmt.Sprintf("%.1f / 10", c.Overall), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(bodyWidth, 8, string(c.Band), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func (e *pdfExporter) summaryPage(pdf *fpdf.Fpdf, s Summary) {
	pdf.AddPage()
	sectionTitle(pdf, "Executive Summary")

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(bodyWidth, 6, s.Narrative, "", "L", false)
	pdf.Ln(6)

	e.scoreTable(pdf, s.Table)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(bodyWidth, 5, "Note: "+s.Note, "", "L", false)
	pdf.Ln(2)
	pdf.MultiCell(bodyWidth, 5, s.Citation, "", "L", false)
}

func (e *pdfExporter) scoreTable(pdf *fpdf.Fpdf, rows []ScoreRow) {
	widths := []float64{78, 26, 24, 30, 22}
	headers := []string{"Category", "Raw Score", "Weight", "Weighted", "Rating"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 236, 232)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		if row.Overall {
			pdf.SetFont("Helvetica", "B", 10)
		}
		raw := strconv.FormatFloat(row.Raw, 'f', 1, 64)
		weight := strconv.FormatFloat(row.Weight, 'f', 2, 64)
		if row.Overall {
			raw, weight = "-", "-"
		}
		pdf.CellFormat(widths[0], 8, row.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, raw, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 8, weight, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, fmt.Sprintf("%.1f/%.1f", row.Weighted, row.Max), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 8, shortBand(string(row.Band)), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
		if row.Overall {
			pdf.SetFont("Helvetica", "", 10)
		}
	}
}

func (e *pdfExporter) assessmentPage(pdf *fpdf.Fpdf, details []CategoryDetail) {
	pdf.AddPage()
	sectionTitle(pdf, "Detailed Assessment")

	for _, d := range details {
		pdf.SetFont("Helvetica", "B", 12)
		r, g, b := bandRGB(d.Band)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(bodyWidth, 8, fmt.Sprintf("%s - %.1f/%.1f", d.Name, d.Weighted, d.Max), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(bodyWidth, 5, fmt.Sprintf("Weight %.2f. %s", d.Weight, d.Justification), "", "L", false)

		if len(d.Metrics) > 0 {
			names := make([]string, 0, len(d.Metrics))
			for name := range d.Metrics {
				names = append(names, name)
			}
			sort.Strings(names)
			line := "Key metrics: "
			for i, name := range names {
				if i > 0 {
					line += ", "
				}
				line += fmt.Sprintf("%s %.2f", name, d.Metrics[name])
			}
			pdf.SetFont("Helvetica", "I", 9)
			pdf.MultiCell(bodyWidth, 5, line, "", "L", false)
		}

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(bodyWidth, 5, d.Narrative, "", "L", false)
		pdf.Ln(4)
	}
}

func (e *pdfExporter) riskPage(pdf *fpdf.Fpdf, risks RiskSection, feasibility FeasibilitySection) {
	pdf.AddPage()
	sectionTitle(pdf, "Risk Analysis & Feasibility")

	if risks.Placeholder != "" {
		placeholderLine(pdf, "Risk analysis: "+risks.Placeholder)
	} else {
		for _, row := range risks.Rows {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(bodyWidth, 7, fmt.Sprintf("%s: %s", row.Title, row.Value), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(bodyWidth, 5, row.Explanation, "", "L", false)
			pdf.Ln(2)
		}
	}
	pdf.Ln(8)

	if feasibility.Positive {
		pdf.SetFillColor(220, 245, 228)
	} else {
		pdf.SetFillColor(250, 226, 222)
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(bodyWidth, 9, "Feasibility: "+feasibility.Status, "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if feasibility.Placeholder != "" {
		placeholderLine(pdf, "Feasibility detail: "+feasibility.Placeholder)
		return
	}
	for _, finding := range feasibility.KeyFindings {
		pdf.MultiCell(bodyWidth, 5, "- "+finding, "", "L", false)
	}
	if len(feasibility.Recommendations) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(bodyWidth, 6, "Recommendations", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, rec := range feasibility.Recommendations {
			pdf.MultiCell(bodyWidth, 5, "- "+rec, "", "L", false)
		}
	}
}

func (e *pdfExporter) policyPage(pdf *fpdf.Fpdf, policy PolicySection, funding FundingSection) {
	pdf.AddPage()
	sectionTitle(pdf, "Policy Compliance & Funding")

	if policy.Placeholder != "" {
		placeholderLine(pdf, "Policy compliance: "+policy.Placeholder)
	} else {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(bodyWidth, 7, "Local Regulations", "", 1, "L", false, 0, "")
		simpleTable(pdf, []string{"Law", "Status", "Notes"}, []float64{60, 40, 80}, regulationRows(policy))
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(bodyWidth, 7, "International Guidelines", "", 1, "L", false, 0, "")
		simpleTable(pdf, []string{"Treaty", "Alignment", "Notes"}, []float64{60, 40, 80}, guidelineRows(policy))
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(bodyWidth, 7, "Funding Opportunities", "", 1, "L", false, 0, "")
	if len(funding.Rows) == 0 {
		placeholderLine(pdf, funding.Placeholder)
		return
	}
	rows := make([][]string, 0, len(funding.Rows))
	for _, f := range funding.Rows {
		rows = append(rows, []string{f.Name, f.Amount, f.Eligibility, f.ApplicationDeadline})
	}
	simpleTable(pdf, []string{"Program", "Amount", "Eligibility", "Deadline"}, []float64{55, 30, 60, 35}, rows)
}

func (e *pdfExporter) appendixPage(pdf *fpdf.Fpdf, appendix Appendix) {
	pdf.AddPage()
	sectionTitle(pdf, "Data Sources & Methodology")

	rows := make([][]string, 0, len(appendix.Sources))
	for _, s := range appendix.Sources {
		rows = append(rows, []string{s.Source, s.Provider, s.Purpose})
	}
	simpleTable(pdf, []string{"Source", "Provider", "Purpose"}, []float64{55, 45, 80}, rows)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(bodyWidth, 7, "Methodology", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, bullet := range appendix.Methodology {
		pdf.MultiCell(bodyWidth, 5, "- "+bullet, "", "L", false)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(bodyWidth, 5, appendix.Certification, "", "L", false)
}

// -- layout helpers --

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(bodyWidth, 10, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(pageMargin, pdf.GetY(), pageMargin+bodyWidth, pdf.GetY())
	pdf.Ln(4)
}

func placeholderLine(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(bodyWidth, 7, text, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func simpleTable(pdf *fpdf.Fpdf, headers []string, widths []float64, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 236, 232)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func regulationRows(policy PolicySection) [][]string {
	rows := make([][]string, 0, len(policy.LocalRegulations))
	for _, reg := range policy.LocalRegulations {
		rows = append(rows, []string{reg.LawName, reg.ComplianceStatus, reg.Notes})
	}
	return rows
}

func guidelineRows(policy PolicySection) [][]string {
	rows := make([][]string, 0, len(policy.InternationalGuidelines))
	for _, g := range policy.InternationalGuidelines {
		rows = append(rows, []string{g.Treaty, g.Alignment, g.Notes})
	}
	return rows
}

func bandRGB(b score.Band) (int, int, int) {
	hex := b.Color()
	r, _ := strconv.ParseInt(hex[1:3], 16, 0)
	g, _ := strconv.ParseInt(hex[3:5], 16, 0)
	bl, _ := strconv.ParseInt(hex[5:7], 16, 0)
	return int(r), int(g), int(bl)
}

func shortBand(band string) string {
	if len(band) > 14 {
		return band[:12] + "..."
	}
	return band
}
