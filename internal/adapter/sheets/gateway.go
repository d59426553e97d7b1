// Package sheets stores tabs in a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

// ErrTabNotFound is returned by operations on a tab that does not exist.
var ErrTabNotFound = errors.New("tab not found")

// Gateway implements pipeline.SheetGateway over the Sheets v4 API. Rows are
// written with the RAW input option so values land exactly as rendered.
type Gateway struct {
	svc           *gsheets.Service
	spreadsheetID string
	logger        *slog.Logger

	mu       sync.Mutex
	sheetIDs map[string]int64 // tab title -> sheet id
}

// New opens a gateway with a service account credentials file.
func New(ctx context.Context, spreadsheetID, credentialsFile string, logger *slog.Logger) (*Gateway, error) {
	return NewWithOptions(ctx, spreadsheetID, logger,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
}

// NewWithOptions opens a gateway with explicit client options, e.g. a test
// endpoint.
func NewWithOptions(ctx context.Context, spreadsheetID string, logger *slog.Logger, opts ...option.ClientOption) (*Gateway, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Gateway{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// Close is a no-op; the HTTP client holds no per-gateway resources.
func (g *Gateway) Close() error { return nil }

// EnsureTab creates the tab if missing and writes the header when the tab is
// empty. An existing non-empty tab is left untouched.
func (g *Gateway) EnsureTab(ctx context.Context, name string, header []string) error {
	if _, err := g.sheetID(ctx, name); err != nil {
		if !errors.Is(err, ErrTabNotFound) {
			return err
		}
		if err := g.addSheet(ctx, name); err != nil {
			return err
		}
	}

	first, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, a1(name, "1:1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %q: %w", name, err)
	}
	if len(first.Values) > 0 && !blankRow(first.Values[0]) {
		return nil
	}

	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	_, err = g.svc.Spreadsheets.Values.Update(g.spreadsheetID, a1(name, "A1"), &gsheets.ValueRange{Values: [][]any{cells}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header of %q: %w", name, err)
	}
	g.logger.Info("tab header written", "tab", name, "columns", len(header))
	return nil
}

// AppendRows appends rows after the last row of the tab.
func (g *Gateway) AppendRows(ctx context.Context, name string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, a1(name, "A1"), &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append %d row(s) to %q: %w", len(rows), name, err)
	}
	return nil
}

// WriteStatus appends a status row: the message in the first column.
func (g *Gateway) WriteStatus(ctx context.Context, name, message string) error {
	return g.AppendRows(ctx, name, [][]any{{message}})
}

// ReadLatestRow returns the last data row of the tab keyed by its header.
// Status rows, which fill only the first column, are skipped.
func (g *Gateway) ReadLatestRow(ctx context.Context, name string) (domain.Record, bool, error) {
	// Stored values, not display text: number formats would round 24.6 to 25.
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, a1(name, "A:Z")).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %q: %w", name, err)
	}
	if len(resp.Values) < 2 {
		return nil, false, nil
	}

	header := stringCells(resp.Values[0])
	for i := len(resp.Values) - 1; i >= 1; i-- {
		row := stringCells(resp.Values[i])
		if filled(row) < 2 {
			continue
		}
		return domain.RecordFromRow(header, row), true, nil
	}
	return nil, false, nil
}

// FormatTab freezes and styles the header row, sets column widths, and
// applies number formats by column name.
func (g *Gateway) FormatTab(ctx context.Context, name string) error {
	id, err := g.sheetID(ctx, name)
	if err != nil {
		return err
	}
	first, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, a1(name, "1:1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %q: %w", name, err)
	}
	if len(first.Values) == 0 || blankRow(first.Values[0]) {
		return fmt.Errorf("no header in first row of %q", name)
	}

	reqs := BuildFormatRequests(id, stringCells(first.Values[0]))
	_, err = g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("format %q: %w", name, err)
	}
	g.logger.Info("tab formatted", "tab", name, "requests", len(reqs))
	return nil
}

// BuildFormatRequests returns the batch update requests that format a tab.
func BuildFormatRequests(sheetID int64, headers []string) []*gsheets.Request {
	reqs := []*gsheets.Request{
		{
			UpdateSheetProperties: &gsheets.UpdateSheetPropertiesRequest{
				Properties: &gsheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &gsheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		{
			RepeatCell: &gsheets.RepeatCellRequest{
				Range: &gsheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1},
				Cell: &gsheets.CellData{UserEnteredFormat: &gsheets.CellFormat{
					TextFormat:          &gsheets.TextFormat{Bold: true},
					HorizontalAlignment: "CENTER",
				}},
				Fields: "userEnteredFormat(textFormat,horizontalAlignment)",
			},
		},
	}

	for i := range headers {
		reqs = append(reqs, &gsheets.Request{
			UpdateDimensionProperties: &gsheets.UpdateDimensionPropertiesRequest{
				Range: &gsheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: int64(i),
					EndIndex:   int64(i + 1),
				},
				Properties: &gsheets.DimensionProperties{PixelSize: int64(domain.ColumnWidth(i))},
				Fields:     "pixelSize",
			},
		})
	}

	for i, h := range headers {
		f := domain.FormatForColumn(h)
		var kind string
		switch f.Kind {
		case domain.FormatNumber:
			kind = "NUMBER"
		case domain.FormatDateTime:
			kind = "DATE_TIME"
		default:
			continue
		}
		reqs = append(reqs, &gsheets.Request{
			RepeatCell: &gsheets.RepeatCellRequest{
				Range: &gsheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					StartColumnIndex: int64(i),
					EndColumnIndex:   int64(i + 1),
				},
				Cell: &gsheets.CellData{UserEnteredFormat: &gsheets.CellFormat{
					NumberFormat: &gsheets.NumberFormat{Type: kind, Pattern: f.Pattern},
				}},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}
	return reqs
}

// sheetID resolves a tab title, caching the spreadsheet's tab list.
func (g *Gateway) sheetID(ctx context.Context, name string) (int64, error) {
	g.mu.Lock()
	id, ok := g.sheetIDs[name]
	g.mu.Unlock()
	if ok {
		return id, nil
	}

	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets(properties(sheetId,title))").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet %s: %w", g.spreadsheetID, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			g.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	if id, ok := g.sheetIDs[name]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrTabNotFound)
}

func (g *Gateway) addSheet(ctx context.Context, name string) error {
	resp, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: name}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add tab %q: %w", name, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		g.mu.Lock()
		g.sheetIDs[name] = resp.Replies[0].AddSheet.Properties.SheetId
		g.mu.Unlock()
	}
	g.logger.Info("tab created", "tab", name)
	return nil
}

// a1 builds an A1 range on a tab, quoting the title.
func a1(tab, rng string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + rng
}

// stringCells renders API cells as text. Numbers use the shortest exact
// form so 12.96 stays 12.96 and 1e6 is not written in exponent notation.
func stringCells(row []any) []string {
	out := make([]string, len(row))
	for i, c := range row {
		switch v := c.(type) {
		case nil:
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func blankRow(row []any) bool {
	return filled(stringCells(row)) == 0
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

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	// An unknown tab in a range is reported as 400 "Unable to parse range".
	return gerr.Code == 404 || (gerr.Code == 400 && strings.Contains(gerr.Message, "Unable to parse range"))
}
