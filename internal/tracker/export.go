package tracker

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/pkg/logger"
)

const (
	interactionsSheet = "Interactions"
	interestSheet     = "Project Interest"
)

// ExportXLSX writes the log and the per-project counts as a workbook.
func ExportXLSX(table Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it instead of adding a sheet.
	if err := f.SetSheetName("Sheet1", interactionsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(interactionsSheet, cell, h)
	}
	for i, r := range table.Rows {
		row := i + 2
		values := []any{formatTimestamp(r.Timestamp), r.Project, r.Question}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(interactionsSheet, cell, v)
		}
	}
	_ = f.SetColWidth(interactionsSheet, "A", "A", 20)
	_ = f.SetColWidth(interactionsSheet, "B", "B", 28)
	_ = f.SetColWidth(interactionsSheet, "C", "C", 80)

	if _, err := f.NewSheet(interestSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	_ = f.SetCellValue(interestSheet, "A1", "Project")
	_ = f.SetCellValue(interestSheet, "B1", "Count")
	for i, pc := range CountByProject(table.Rows) {
		_ = f.SetCellValue(interestSheet, fmt.Sprintf("A%d", i+2), pc.Project)
		_ = f.SetCellValue(interestSheet, fmt.Sprintf("B%d", i+2), pc.Count)
	}
	_ = f.SetColWidth(interestSheet, "A", "A", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("Analytics exported", zap.Int("rows", len(table.Rows)))
	return buf.Bytes(), nil
}

func sortCounts(counts []ProjectCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Project < counts[j].Project
	})
}
