package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/readmodel"
)

const summarySheet = "Summary"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders a longlist workbook: a summary sheet with the funnel, then one sheet per
// investor status that has entries, in funnel order.
func (g *Generator) Generate(report readmodel.Longlist) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, report); err != nil {
		return nil, err
	}

	used := map[string]struct{}{summarySheet: {}}
	for _, status := range model.InvestorStatuses() {
		group := investorsWithStatus(report.Investors, status)
		if len(group) == 0 {
			continue
		}
		sheet := buildSheetName(string(status), used)
		used[sheet] = struct{}{}
		if _, err := file.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := g.writeDetail(file, sheet, group); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, report readmodel.Longlist) error {
	sheet := summarySheet
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Deal")
	set("B1", report.Deal.Name)
	set("A2", "Type")
	set("B2", string(report.Deal.Type))
	set("A3", "Stage")
	set("B3", string(report.Deal.Stage))
	set("A4", "Project step")
	set("B4", string(report.Deal.ProjectStep))
	set("A5", "Generated")
	set("B5", formatDateTime(report.GeneratedAt))

	funnel := report.Funnel
	rates := funnel.Rates()
	tableRow := 7
	set(fmt.Sprintf("A%d", tableRow), "Funnel")
	set(fmt.Sprintf("B%d", tableRow), "Investors")
	set(fmt.Sprintf("C%d", tableRow), "Conversion, %")
	rows := []struct {
		label string
		count int
		rate  interface{}
	}{
		{"Longlist", funnel.Total, ""},
		{"Contacted", funnel.Contacted, rates.Contacted},
		{"NDA signed", funnel.NDASigned, rates.NDASigned},
		{"IM sent", funnel.IMSent, rates.IMSent},
		{"Bids", funnel.Bids, rates.Bids},
		{"Dropped", funnel.Dropped, ""},
	}
	for i, r := range rows {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), r.label)
		set(fmt.Sprintf("B%d", row), r.count)
		set(fmt.Sprintf("C%d", row), r.rate)
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 36)
	_ = file.SetColWidth(sheet, "C", "C", 16)
	return nil
}

var detailHeaders = []string{
	"Investor",
	"Status",
	"Contacted",
	"NDA sent",
	"NDA signed",
	"IM sent",
	"Notes",
	"Feedback",
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, investors []model.DealInvestor) error {
	for i, header := range detailHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		_ = file.SetCellValue(sheet, cell, header)
	}

	for i, inv := range investors {
		values := []interface{}{
			inv.OrganizationName(),
			string(inv.Status),
			formatDatePtr(inv.EmailSentAt),
			formatDatePtr(inv.NDASentAt),
			formatDatePtr(inv.NDASignedAt),
			formatDatePtr(inv.IMSentAt),
			inv.Notes,
			inv.Feedback,
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(sheet, start, &values); err != nil {
			return err
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 36)
	_ = file.SetColWidth(sheet, "B", "B", 18)
	_ = file.SetColWidth(sheet, "C", "F", 14)
	_ = file.SetColWidth(sheet, "G", "H", 48)
	return nil
}

func investorsWithStatus(investors []model.DealInvestor, status model.InvestorStatus) []model.DealInvestor {
	var out []model.DealInvestor
	for _, inv := range investors {
		if inv.Status == status {
			out = append(out, inv)
		}
	}
	return out
}

func buildSheetName(name string, used map[string]struct{}) string {
	base := sanitizeSheetName(name)
	if len(base) > 31 {
		base = base[:31]
	}

	candidate := base
	counter := 2
	for {
		if _, exists := used[candidate]; !exists {
			return candidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		candidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Sheet"
	}
	return value
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// FileName is the download name for a deal's longlist export.
func (g *Generator) FileName(deal model.Deal, at time.Time) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, deal.Name)
	if name == "" {
		name = deal.ID.String()
	}
	return fmt.Sprintf("longlist_%s_%s.xlsx", name, at.Format("20060102"))
}
