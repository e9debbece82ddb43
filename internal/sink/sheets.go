// Package sink appends captured rows to a Google Sheets tab.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/sheets/v4"

	"github.com/hmartens/skypulse/internal/models"
	"github.com/hmartens/skypulse/internal/retry"
)

// Sink receives batches of new rows. Append reports success; a false return
// means the rows must not be marked as seen.
type Sink interface {
	Append(ctx context.Context, rows []models.PostRow) bool
}

// SheetsSink appends rows to a named sheet via spreadsheets.values.append.
// No header row is managed; rows land after the last populated row.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	policy        retry.Policy
}

func NewSheetsSink(svc *sheets.Service, spreadsheetID, sheetName string, policy retry.Policy) *SheetsSink {
	return &SheetsSink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		policy:        policy,
	}
}

// Append writes rows in the fixed column order: capture timestamp, text, URI,
// handle, category, controversy. Failure is logged, never raised.
func (s *SheetsSink) Append(ctx context.Context, rows []models.PostRow) bool {
	if len(rows) == 0 {
		return true
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, []interface{}{
			row.CapturedAt,
			row.Text,
			row.URI,
			row.Handle,
			row.Category,
			row.Controversy,
		})
	}

	body := &sheets.ValueRange{Values: values}
	appendRange := fmt.Sprintf("%s!A1", s.sheetName)

	_, ok := retry.Do(ctx, s.policy, "sheets_append", func(ctx context.Context) (*sheets.AppendValuesResponse, error) {
		return s.svc.Spreadsheets.Values.
			Append(s.spreadsheetID, appendRange, body).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
	})
	if !ok {
		slog.Error("[SheetsSink] Failed to write to Google Sheets",
			slog.Int("rows", len(rows)))
		return false
	}

	slog.Info("[SheetsSink] Appended new posts to Google Sheets",
		slog.Int("rows", len(rows)))
	return true
}
