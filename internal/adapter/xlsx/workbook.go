// Package xlsx stores tabs as worksheets of a local Excel workbook, for runs
// without Google credentials.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

// defaultSheet is the worksheet every new workbook starts with.
const defaultSheet = "Sheet1"

// Workbook implements pipeline.SheetGateway on an .xlsx file. Every write is
// saved immediately so a crash loses at most the row being written.
type Workbook struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	file  *excelize.File
	fresh bool // file has only the untouched default sheet
}

// Open opens the workbook at path, creating it on first save if missing.
func Open(path string, logger *slog.Logger) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &Workbook{path: path, logger: logger, file: excelize.NewFile(), fresh: true}, nil
	case err != nil:
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{path: path, logger: logger, file: f}, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// EnsureTab creates the worksheet if missing and writes the header when it is
// empty.
func (w *Workbook) EnsureTab(_ context.Context, name string, header []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("look up %q: %w", name, err)
	}
	if idx < 0 {
		if err := w.addSheet(name); err != nil {
			return err
		}
	}

	rows, err := w.file.GetRows(name)
	if err != nil {
		return fmt.Errorf("read %q: %w", name, err)
	}
	if len(rows) > 0 && filled(rows[0]) > 0 {
		return nil
	}

	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := w.file.SetSheetRow(name, "A1", &cells); err != nil {
		return fmt.Errorf("write header of %q: %w", name, err)
	}
	return w.save()
}

// AppendRows writes rows below the last non-empty row.
func (w *Workbook) AppendRows(_ context.Context, name string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	existing, err := w.rows(name)
	if err != nil {
		return err
	}
	next := len(existing) + 1
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return err
		}
		if err := w.file.SetSheetRow(name, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %q row %d: %w", name, next+i, err)
		}
	}
	return w.save()
}

// WriteStatus appends a status row: the message in the first column.
func (w *Workbook) WriteStatus(ctx context.Context, name, message string) error {
	return w.AppendRows(ctx, name, [][]any{{message}})
}

// ReadLatestRow returns the last data row keyed by the header row. Status
// rows, which fill only the first column, are skipped.
func (w *Workbook) ReadLatestRow(_ context.Context, name string) (domain.Record, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return nil, false, fmt.Errorf("look up %q: %w", name, err)
	}
	if idx < 0 {
		return nil, false, nil
	}
	rows, err := w.rows(name)
	if err != nil {
		return nil, false, err
	}
	for i := len(rows) - 1; i >= 1; i-- {
		if filled(rows[i]) >= 2 {
			return domain.RecordFromRow(rows[0], rows[i]), true, nil
		}
	}
	return nil, false, nil
}

// FormatTab freezes and styles the header row, sets column widths, and
// applies number formats by column name.
func (w *Workbook) FormatTab(_ context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.rows(name)
	if err != nil {
		return err
	}
	if len(rows) == 0 || filled(rows[0]) == 0 {
		return fmt.Errorf("no header in first row of %q", name)
	}
	header := rows[0]

	if err := w.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header of %q: %w", name, err)
	}

	styles := make(map[string]int)
	for i, h := range header {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.file.SetColWidth(name, col, col, float64(domain.ColumnWidth(i))/7); err != nil {
			return fmt.Errorf("set width of %q column %s: %w", name, col, err)
		}

		f := domain.FormatForColumn(h)
		if f.Kind == domain.FormatText {
			continue
		}
		style, ok := styles[f.Pattern]
		if !ok {
			pattern := f.Pattern
			if style, err = w.file.NewStyle(&excelize.Style{CustomNumFmt: &pattern}); err != nil {
				return fmt.Errorf("number style %q: %w", pattern, err)
			}
			styles[f.Pattern] = style
		}
		if err := w.file.SetColStyle(name, col, style); err != nil {
			return fmt.Errorf("format %q column %s: %w", name, col, err)
		}
	}

	headerStyle, err := w.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header of %q: %w", name, err)
	}

	w.logger.Info("tab formatted", "tab", name, "path", w.path)
	return w.save()
}

// Tabs lists the worksheets in order.
func (w *Workbook) Tabs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.GetSheetList()
}

func (w *Workbook) addSheet(name string) error {
	// A new workbook's placeholder sheet becomes the first real tab.
	if w.fresh {
		w.fresh = false
		if err := w.file.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("rename %s to %q: %w", defaultSheet, name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("add tab %q: %w", name, err)
	}
	w.logger.Info("tab created", "tab", name, "path", w.path)
	return nil
}

func (w *Workbook) rows(name string) ([][]string, error) {
	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("look up %q: %w", name, err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("tab %q not found", name)
	}
	// Raw values: a "0" number format must not turn 24.6 into 25.
	rows, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	return rows, nil
}

func (w *Workbook) save() error {
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}

func filled(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}
