// Package export writes a job's ranked applicants to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/ranking"
)

// Sheet names
const (
	SummarySheet    = "Summary"
	CandidatesSheet = "Ranked Candidates"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var candidateColumns = []string{
	"Rank", "Name", "Email", "Phone", "LinkedIn", "Portfolio", "Status",
	"Similarity", "Years of experience", "Skills", "Projects", "Reason", "Shortlisted", "Applied at",
}

// WriteShortlist writes a workbook for job with every ranked applicant. The
// first shortlistSize rows are marked as shortlisted.
func WriteShortlist(w io.Writer, job model.Job, ranked []ranking.Ranked, now time.Time) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(CandidatesSheet); err != nil {
		return err
	}

	if err := writeSummary(f, job, ranked, now); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeCandidates(f, job, ranked); err != nil {
		return fmt.Errorf("failed to create candidates sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename is the suggested download name for job's workbook.
func Filename(job model.Job) string {
	return fmt.Sprintf("job-%d-applicants.xlsx", job.ID)
}

func writeSummary(f *excelize.File, job model.Job, ranked []ranking.Ranked, now time.Time) error {
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 50); err != nil {
		return err
	}

	shortlisted := len(ranking.Shortlist(ranked, job.ShortlistSize))
	rows := [][2]any{
		{"Job", job.Title},
		{"Company", job.Company},
		{"Job ID", job.ID},
		{"Shortlist size", job.ShortlistSize},
		{"Applicants", len(ranked)},
		{"Shortlisted", shortlisted},
		{"Generated", now.Format("2006-01-02 15:04:05")},
	}
	for i, r := range rows {
		label := fmt.Sprintf("A%d", i+1)
		if err := f.SetCellValue(SummarySheet, label, r[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, label, label, labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", i+1), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeCandidates(f *excelize.File, job model.Job, ranked []ranking.Ranked) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	shortlistStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E2EFDA"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, h := range candidateColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(CandidatesSheet, cell, h); err != nil {
			return err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(candidateColumns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(CandidatesSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(CandidatesSheet, "B", "C", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(CandidatesSheet, "J", "L", 45); err != nil {
		return err
	}

	shortlisted := len(ranking.Shortlist(ranked, job.ShortlistSize))
	for i, r := range ranked {
		row := i + 2
		analysis := model.FailedCVAnalysis()
		if r.CVAnalysis != nil {
			analysis = *r.CVAnalysis
		}
		values := []any{
			r.Rank,
			r.Applicant.Name,
			r.Applicant.DisplayEmail(),
			r.PhoneNumber,
			deref(r.LinkedinProfile),
			deref(r.PortfolioWebsite),
			r.Status,
			analysis.Similarity,
			analysis.NYears,
			analysis.Skills,
			analysis.Projects,
			analysis.Reason,
			yesNo(i < shortlisted),
			r.CreatedAt.Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(CandidatesSheet, cell, &values); err != nil {
			return err
		}
		if i < shortlisted {
			if err := f.SetCellStyle(CandidatesSheet, cell, fmt.Sprintf("%s%d", lastCol, row), shortlistStyle); err != nil {
				return err
			}
		}
	}

	return f.SetPanes(CandidatesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
