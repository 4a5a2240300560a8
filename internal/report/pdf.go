package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"example.com/ndagate/internal/check"
)

// SavePDF renders the given decode summary into a PDF document. When the
// summary carries an output digest, a QR code of it is embedded so the
// printed page can be matched back to the converted file.
func SavePDF(rep Summary, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Decode Report", false)
	pdf.SetAuthor("ndactl", false)
	pdf.SetCreator("ndactl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "Decode Report")
	addSummarySection(pdf, rep)
	addFindingsSection(pdf, rep.Checks.Findings)
	if rep.OutputSha256 != "" {
		addDigestSection(pdf, rep.OutputSha256)
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, rep Summary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "File", value: emptyFallback(rep.File, "-")},
		{label: "Format", value: emptyFallback(rep.Format, "-")},
		{label: "Version", value: strconv.Itoa(rep.Version)},
		{label: "Records", value: strconv.Itoa(rep.Records)},
		{label: "Cycles", value: strconv.Itoa(rep.Cycles)},
		{label: "Steps", value: strconv.Itoa(rep.Steps)},
		{label: "Aux Channels", value: strconv.Itoa(rep.AuxChannels)},
		{label: "Findings", value: strconv.Itoa(rep.Checks.Summary.Total)},
		{label: "Errors", value: strconv.Itoa(rep.Checks.Summary.Errors)},
		{label: "Warnings", value: strconv.Itoa(rep.Checks.Summary.Warnings)},
		{label: "Overall", value: passLabel(rep.Checks.Summary.Pass)},
	}
	if !rep.CreatedAt.IsZero() {
		items = append(items, struct {
			label string
			value string
		}{label: "Created", value: rep.CreatedAt.Format(time.RFC3339)})
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addFindingsSection(pdf *gofpdf.Fpdf, findings []check.Diagnostic) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Findings")
	pdf.Ln(9)

	if len(findings) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No findings recorded.", "", "L", false)
		pdf.Ln(2)
		return
	}

	for i, d := range findings {
		pdf.SetFont("Helvetica", "B", 10)
		header := fmt.Sprintf("%d. %s (%s)", i+1, d.RuleId, severityLabel(d.Severity))
		pdf.MultiCell(0, 5, header, "", "L", false)

		if msg := strings.TrimSpace(d.Message); msg != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, msg, "", "L", false)
		}

		meta := findingMetadata(d)
		if meta != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 4, meta, "", "L", false)
		}

		pdf.Ln(2)
	}
}

func addDigestSection(pdf *gofpdf.Fpdf, digest string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Output Digest")
	pdf.Ln(9)

	pdf.SetFont("Courier", "", 9)
	pdf.MultiCell(0, 4, digest, "", "L", false)
	pdf.Ln(2)

	png, err := DigestToQR(digest, 192)
	if err != nil {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("output-digest-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("output-digest-qr", pdf.GetX(), pdf.GetY(), 40, 40, true, opts, 0, "")
}

func passLabel(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}

func severityLabel(sev check.Severity) string {
	if s := strings.TrimSpace(string(sev)); s != "" {
		return s
	}
	return "UNKNOWN"
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}

func findingMetadata(d check.Diagnostic) string {
	parts := make([]string, 0, 3)
	if !d.Ts.IsZero() {
		parts = append(parts, d.Ts.Format(time.RFC3339))
	}
	if d.Row != 0 {
		parts = append(parts, fmt.Sprintf("Row %d", d.Row))
	}
	if d.Index != 0 {
		parts = append(parts, fmt.Sprintf("Index %d", d.Index))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " · ")
}
