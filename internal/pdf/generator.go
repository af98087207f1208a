package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/readmodel"
)

const fontName = "Helvetica"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the client status report for the portal: milestones, stage history and
// investor progress. Notes and feedback never appear here.
func (g *Generator) Generate(view readmodel.PortalView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(fmt.Sprintf("%s status report", view.Name), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 10, tr(view.Name), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Status report of %s", formatDate(view.GeneratedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Mandate")
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Type: %s", humanize(string(view.Type))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Stage: %s", humanize(string(view.Stage))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Current milestone: %s (%.0f%%)", stepLabel(view.ProjectStep), readmodel.StepProgress(view.ProjectStep)), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	drawSteps(pdf, view.Steps, view.ProjectStep)
	pdf.Ln(4)

	section(pdf, "Stage history")
	widths := []float64{60, 60, 60}
	drawTableRow(pdf, []string{"Stage", "Entered", "Exited"}, widths, true)
	for _, entry := range view.Timeline {
		exited := "current"
		if entry.ExitedAt != nil {
			exited = formatDate(*entry.ExitedAt)
		}
		drawTableRow(pdf, []string{humanize(string(entry.Stage)), formatDate(entry.EnteredAt), exited}, widths, false)
	}
	pdf.Ln(4)

	section(pdf, "Investor process")
	funnel := view.Funnel
	rates := funnel.Rates()
	widths = []float64{80, 50, 50}
	drawTableRow(pdf, []string{"Milestone", "Investors", "Conversion"}, widths, true)
	drawTableRow(pdf, []string{"Approached", fmt.Sprint(funnel.Total), ""}, widths, false)
	drawTableRow(pdf, []string{"Contacted", fmt.Sprint(funnel.Contacted), formatRate(rates.Contacted)}, widths, false)
	drawTableRow(pdf, []string{"NDA signed", fmt.Sprint(funnel.NDASigned), formatRate(rates.NDASigned)}, widths, false)
	drawTableRow(pdf, []string{"IM sent", fmt.Sprint(funnel.IMSent), formatRate(rates.IMSent)}, widths, false)
	drawTableRow(pdf, []string{"Bids", fmt.Sprint(funnel.Bids), formatRate(rates.Bids)}, widths, false)
	pdf.Ln(2)

	if len(view.Investors) > 0 {
		widths = []float64{120, 60}
		drawTableRow(pdf, []string{"Investor", "Status"}, widths, true)
		for _, inv := range view.Investors {
			drawTableRow(pdf, []string{tr(safeValue(inv.Name)), humanize(string(inv.Status))}, widths, false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

// drawSteps renders the ordered milestones as a strip, filling those already reached.
func drawSteps(pdf *gofpdf.Fpdf, steps []model.ProjectStep, current model.ProjectStep) {
	if len(steps) == 0 {
		return
	}
	width := 180 / float64(len(steps))
	pdf.SetFont(fontName, "", 6)
	for _, step := range steps {
		fill := step.Index() <= current.Index()
		if fill {
			pdf.SetFillColor(46, 125, 50)
			pdf.SetTextColor(255, 255, 255)
		} else {
			pdf.SetFillColor(230, 230, 230)
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.CellFormat(width, 8, stepLabel(step), "1", 0, "C", true, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(-1)
}

func drawTableRow(pdf *gofpdf.Fpdf, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

var stepLabels = map[model.ProjectStep]string{
	model.ProjectStepLonglist:       "Longlist",
	model.ProjectStepNDA:            "NDA",
	model.ProjectStepIM:             "IM",
	model.ProjectStepProcessLetter:  "Process letter",
	model.ProjectStepManagementPres: "Mgmt pres.",
	model.ProjectStepNBO:            "NBO",
	model.ProjectStepSigningClosing: "Signing",
}

func stepLabel(step model.ProjectStep) string {
	if label, ok := stepLabels[step]; ok {
		return label
	}
	return humanize(string(step))
}

func humanize(code string) string {
	if code == "" {
		return "-"
	}
	words := strings.Split(strings.ToLower(code), "_")
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatRate(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}
