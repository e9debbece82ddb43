package clients

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewSheetsService builds a Sheets client from a service-account key file,
// scoped to spreadsheet access only.
func NewSheetsService(ctx context.Context, credentialsFile string) (*sheets.Service, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("[SheetsClient] failed to create sheets service: %w", err)
	}
	return svc, nil
}
