package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// exportColumns is the spreadsheet column layout, in order.
var exportColumns = []string{
	"Company", "Website", "Industry", "City", "Postal Code", "Country",
	"Phone", "Business Type", "E-commerce", "Tech Stack",
	"Contact Name", "Contact Title", "Email", "Email Source", "Email Status",
	"LinkedIn", "Generic Email", "Score", "Priority", "Reasoning", "Added",
}

// ExportStage writes the final dataset to an XLSX workbook for the sales
// team. When OutputPath is empty a dated filename is derived from Prefix
// next to the dataset.
type ExportStage struct {
	DataPath   string
	OutputPath string
	Prefix     string
	Now        func() time.Time
}

func (s *ExportStage) Run(ctx context.Context) error {
	leads, err := model.ReadDataset(s.DataPath)
	if err != nil {
		return eris.Wrap(err, "export: read dataset")
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "export: cancelled")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	headerStyle := xlsx.NewStyle()
	headerStyle.Font.Bold = true
	for _, col := range exportColumns {
		cell := header.AddCell()
		cell.SetString(col)
		cell.SetStyle(headerStyle)
	}

	for _, lead := range leads {
		row := sheet.AddRow()
		for _, v := range leadRow(lead) {
			row.AddCell().SetString(v)
		}
	}

	out := s.OutputPath
	if out == "" {
		now := s.Now
		if now == nil {
			now = time.Now
		}
		prefix := s.Prefix
		if prefix == "" {
			prefix = "leads"
		}
		out = filepath.Join(filepath.Dir(s.DataPath), timestampedName(prefix, now()))
	}
	if err := f.Save(out); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}

	zap.L().Info("export: complete",
		zap.Int("leads", len(leads)),
		zap.String("path", out),
	)
	return nil
}

// leadRow flattens a lead into cells matching exportColumns.
func leadRow(l model.Lead) []string {
	var added string
	if !l.AddedAt.IsZero() {
		added = l.AddedAt.Format("2006-01-02")
	}
	return []string{
		l.Company,
		l.Website,
		l.Industry,
		l.City,
		l.PostalCode,
		l.Country,
		l.Phone,
		string(l.BusinessType),
		string(l.Ecommerce),
		l.TechStack,
		l.ContactName,
		l.ContactTitle,
		l.Email,
		string(l.EmailSource),
		string(l.EmailStatus),
		l.LinkedInURL,
		l.GenericEmail,
		fmt.Sprintf("%d", l.LeadScore),
		strings.ToUpper(string(l.Priority)),
		l.ScoreReasoning,
		added,
	}
}

// timestampedName derives an export filename like leads_2026-03-01.xlsx.
func timestampedName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, t.Format("2006-01-02"))
}
