package albreport

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

const (
	// maxSheetNameLen is the Excel limit on sheet names.
	maxSheetNameLen = 31

	// defaultMaxRowsPerSheet is the per-sheet data row ceiling: the
	// Excel worksheet limit minus the header row.
	defaultMaxRowsPerSheet = 1048575
)

// Fixed widths for well-known columns. Free-text columns get a
// content-derived width instead, capped below.
var fixedColumnWidths = map[string]float64{
	"Count":               10,
	"Total Time":          12,
	"Abuse":               10,
	"Timestamp":           24,
	"ELB Status Code":     17,
	"Backend Status Code": 21,
}

const maxContentColumnWidth = 80

// ReportWriter serializes result tables into one xlsx workbook. A
// table longer than MaxRowsPerSheet is split into consecutive chunk
// sheets preserving row order. Any write error aborts the report; a
// partially written file must be treated as invalid by the caller.
type ReportWriter struct {
	logger  *slog.Logger
	metrics *Metrics

	// MaxRowsPerSheet is the data row ceiling per sheet (header
	// excluded). Defaults to the Excel worksheet limit.
	MaxRowsPerSheet int
}

// NewReportWriter creates a report writer.
func NewReportWriter(metrics *Metrics, logger *slog.Logger) *ReportWriter {
	return &ReportWriter{
		metrics:         metrics,
		logger:          logger,
		MaxRowsPerSheet: defaultMaxRowsPerSheet,
	}
}

// SheetNames returns the sheet names a table will occupy given its
// row count: the table name for the first chunk, then " (n)" suffixed
// names for overflow chunks, all truncated to the Excel limit.
func (w *ReportWriter) SheetNames(table *ResultTable) []string {
	numChunks := (table.NumRows() + w.MaxRowsPerSheet - 1) / w.MaxRowsPerSheet
	if numChunks < 1 {
		numChunks = 1
	}

	names := make([]string, numChunks)
	for i := range names {
		names[i] = chunkSheetName(table.Name, i)
	}
	return names
}

func chunkSheetName(base string, chunk int) string {
	if chunk == 0 {
		return truncateName(base, maxSheetNameLen)
	}
	suffix := fmt.Sprintf(" (%d)", chunk+1)
	return truncateName(base, maxSheetNameLen-len(suffix)) + suffix
}

func truncateName(name string, limit int) string {
	if len(name) > limit {
		return name[:limit]
	}
	return name
}

// Write writes the tables, in order, into one workbook at path. The
// abuse set drives the conditional highlighting of flagged client IP
// cells and of the Abuse column when it reads Yes.
func (w *ReportWriter) Write(tables []ResultTable, abuseSet AbuseSet, path string) error {
	workbook := excelize.NewFile()
	defer func() { _ = workbook.Close() }()

	headerStyle, err := workbook.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	abuseStyle, err := workbook.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Font: &excelize.Font{Color: "9C0006"},
	})
	if err != nil {
		return fmt.Errorf("failed to create highlight style: %w", err)
	}

	firstSheet := true
	for i := range tables {
		table := &tables[i]
		names := w.SheetNames(table)

		for chunk, sheetName := range names {
			low := chunk * w.MaxRowsPerSheet
			high := low + w.MaxRowsPerSheet
			if high > table.NumRows() {
				high = table.NumRows()
			}

			if firstSheet {
				// excelize seeds every workbook with "Sheet1"
				if err := workbook.SetSheetName("Sheet1", sheetName); err != nil {
					return fmt.Errorf("failed to name sheet %q: %w", sheetName, err)
				}
				firstSheet = false
			} else if _, err := workbook.NewSheet(sheetName); err != nil {
				return fmt.Errorf("failed to create sheet %q: %w", sheetName, err)
			}

			if err := w.writeSheet(workbook, sheetName, table, table.Rows[low:high],
				abuseSet, headerStyle, abuseStyle); err != nil {
				return fmt.Errorf("failed to write sheet %q: %w", sheetName, err)
			}

			w.metrics.Report.SheetsWritten.Inc()
		}

		if len(names) > 1 {
			w.logger.Warn("table exceeds the per-sheet row ceiling, split into chunks",
				"table", table.Name, "rows", table.NumRows(), "sheets", len(names))
		}
	}

	if err := workbook.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", path, err)
	}

	w.logger.Info("report saved", "path", path)
	return nil
}

func (w *ReportWriter) writeSheet(workbook *excelize.File, sheetName string,
	table *ResultTable, rows [][]any, abuseSet AbuseSet, headerStyle, abuseStyle int) error {
	header := make([]any, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = column
	}
	if err := workbook.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(table.Columns))
	if err != nil {
		return err
	}
	if err := workbook.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	clientIPCol := columnIndex(table.Columns, "Client IP")
	abuseCol := columnIndex(table.Columns, "Abuse")

	for i := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := workbook.SetSheetRow(sheetName, cell, &rows[i]); err != nil {
			return err
		}

		if clientIPCol >= 0 {
			if ip, ok := rows[i][clientIPCol].(string); ok && abuseSet.Contains(ip) {
				if err := highlightCell(workbook, sheetName, clientIPCol, i+2, abuseStyle); err != nil {
					return err
				}
			}
		}
		if abuseCol >= 0 && rows[i][abuseCol] == "Yes" {
			if err := highlightCell(workbook, sheetName, abuseCol, i+2, abuseStyle); err != nil {
				return err
			}
		}
	}

	// Header row stays visible and filterable while scrolling
	if err := workbook.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	filterRange := fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1)
	if err := workbook.AutoFilter(sheetName, filterRange, nil); err != nil {
		return err
	}

	return w.sizeColumns(workbook, sheetName, table.Columns, rows)
}

func (w *ReportWriter) sizeColumns(workbook *excelize.File, sheetName string,
	columns []string, rows [][]any) error {
	for i, column := range columns {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}

		width, fixed := fixedColumnWidths[column]
		if !fixed {
			width = contentWidth(column, rows, i)
		}
		if err := workbook.SetColWidth(sheetName, colName, colName, width); err != nil {
			return err
		}
	}
	return nil
}

func contentWidth(column string, rows [][]any, colIdx int) float64 {
	longest := len(column)
	for i := range rows {
		if length := len(fmt.Sprint(rows[i][colIdx])); length > longest {
			longest = length
		}
	}
	width := float64(longest + 2)
	if width > maxContentColumnWidth {
		width = maxContentColumnWidth
	}
	return width
}

func highlightCell(workbook *excelize.File, sheetName string, col, row, style int) error {
	colName, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return err
	}
	cell := fmt.Sprintf("%s%d", colName, row)
	return workbook.SetCellStyle(sheetName, cell, cell, style)
}

func columnIndex(columns []string, name string) int {
	for i, column := range columns {
		if column == name {
			return i
		}
	}
	return -1
}
