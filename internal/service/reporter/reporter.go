package reporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"baliance.com/gooxml/document"
	"baliance.com/gooxml/schema/soo/wml"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/tgprune/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	outcomesSheet = "Outcomes"
	summarySheet  = "Summary"
	timeFormat    = "2006-01-02 15:04:05"
	snippetLen    = 200
)

type Reporter struct {
	log pkg.Logger
	dir string
}

func NewReporter(log pkg.Logger, dir string) *Reporter {
	return &Reporter{
		log: log,
		dir: dir,
	}
}

// GenerateRunReport writes <dir>/<run_id>.xlsx and <dir>/<run_id>.docx.
func (r *Reporter) GenerateRunReport(ctx context.Context, summary model.RunSummary, outcomes []model.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.log.Info("Generating run report", "run_id", summary.RunID, "outcomes", len(outcomes))

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	sorted := make([]model.Outcome, len(outcomes))
	copy(sorted, outcomes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PostID > sorted[j].PostID
	})

	if err := r.saveExcel(r.XLSXPath(summary.RunID), summary, sorted); err != nil {
		r.log.Error("Failed to save Excel report", "err", err)
		return err
	}
	if err := r.saveDoc(r.DocxPath(summary.RunID), summary, sorted); err != nil {
		r.log.Error("Failed to save docx report", "err", err)
		return err
	}

	r.log.Info("Report generation completed successfully", "dir", r.dir)
	return nil
}

func (r *Reporter) XLSXPath(runID string) string {
	return filepath.Join(r.dir, runID+".xlsx")
}

func (r *Reporter) DocxPath(runID string) string {
	return filepath.Join(r.dir, runID+".docx")
}

func (r *Reporter) saveExcel(path string, summary model.RunSummary, outcomes []model.Outcome) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", outcomesSheet); err != nil {
		return err
	}

	header := []interface{}{"Post ID", "Created at", "Decision", "Status", "Error", "Text"}
	if err := f.SetSheetRow(outcomesSheet, "A1", &header); err != nil {
		return err
	}
	for i, o := range outcomes {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			o.PostID,
			o.CreatedAt.Format(timeFormat),
			string(o.Decision),
			string(o.Status),
			o.Error,
			snippet(o.Text),
		}
		if err := f.SetSheetRow(outcomesSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Run ID", summary.RunID},
		{"Account", summary.Account},
		{"Dry run", summary.DryRun},
		{"Cutoff", summary.Cutoff.Format(timeFormat)},
		{"Started at", summary.StartedAt.Format(timeFormat)},
		{"Finished at", summary.FinishedAt.Format(timeFormat)},
		{"Pages", summary.Pages},
		{"Evaluated", summary.Evaluated},
		{"Kept", summary.Kept},
		{"Simulated", summary.Simulated},
		{"Deleted", summary.Deleted},
		{"Failed", summary.Failed},
		{"Fetch error", errText(summary.FetchErr)},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func (r *Reporter) saveDoc(path string, summary model.RunSummary, outcomes []model.Outcome) error {
	doc := document.New()

	para := doc.AddParagraph()
	para.SetStyle("Heading1")
	para.Properties().SetAlignment(wml.ST_JcCenter)
	run := para.AddRun()
	run.Properties().SetBold(true)
	run.AddText(fmt.Sprintf("Cleanup of @%s", summary.Account))

	mode := "live"
	if summary.DryRun {
		mode = "dry run"
	}
	doc.AddParagraph().AddRun().AddText(fmt.Sprintf("Run %s (%s), posts older than %s.",
		summary.RunID, mode, summary.Cutoff.Format(timeFormat)))
	doc.AddParagraph().AddRun().AddText(fmt.Sprintf("Pages: %d. Evaluated: %d. Kept: %d. Simulated: %d. Deleted: %d. Failed: %d.",
		summary.Pages, summary.Evaluated, summary.Kept, summary.Simulated, summary.Deleted, summary.Failed))
	if summary.FetchErr != nil {
		doc.AddParagraph().AddRun().AddText("Traversal stopped early: " + summary.FetchErr.Error())
	}

	for _, o := range outcomes {
		if o.Decision != model.DecisionDelete {
			continue
		}
		doc.AddParagraph().AddRun().AddText("----------")

		p := doc.AddParagraph()
		head := p.AddRun()
		head.Properties().SetBold(true)
		head.AddText(fmt.Sprintf("#%d, %s, %s", o.PostID, o.CreatedAt.Format(timeFormat), o.Status))

		if text := snippet(o.Text); text != "" {
			body := doc.AddParagraph()
			body.Properties().SetAlignment(wml.ST_JcBoth)
			body.AddRun().AddText(text)
		}
		if o.Error != "" {
			doc.AddParagraph().AddRun().AddText("Error: " + o.Error)
		}
	}

	return doc.SaveToFile(path)
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLen {
		return text
	}
	return string(runes[:snippetLen]) + "…"
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
