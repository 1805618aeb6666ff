// Package google mirrors transactions to a Google Sheets spreadsheet via a
// service account. Rows use the same column layout as the CSV export.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/mirror"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// Resolved lazily; needed for row deletion requests.
	sheetID      int64
	sheetIDReady bool
}

var _ mirror.TransactionMirror = (*Client)(nil)

// New creates a mirror client for one spreadsheet. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// Upsert writes the transaction row. An existing row with the same ID is
// updated in place so redeliveries and edits do not duplicate rows.
func (c *Client) Upsert(ctx context.Context, tx core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		tx.ID,
		tx.Date.String(),
		tx.Description,
		tx.Category,
		string(tx.Type),
		tx.Amount.DecimalString(),
		tx.UserID,
		tx.CreatedAt.UTC().Format(time.RFC3339),
	}

	rowNum, err := c.findRow(ctx, tx.ID)
	if err != nil {
		return err
	}

	if rowNum == 0 {
		rng := fmt.Sprintf("%s!A:H", c.sheetName)
		vr := &gsheet.ValueRange{Values: [][]any{row}}
		_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append row to %s: %w", c.sheetName, err)
		}
		slog.InfoContext(ctx, "Mirrored transaction row", "transaction_id", tx.ID, "sheet", c.sheetName)
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:H%d", c.sheetName, rowNum, rowNum)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row %d in %s: %w", rowNum, c.sheetName, err)
	}
	slog.InfoContext(ctx, "Updated mirrored transaction row", "transaction_id", tx.ID, "row", rowNum)
	return nil
}

// Remove deletes the row holding the transaction, if present.
func (c *Client) Remove(ctx context.Context, transactionID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rowNum, err := c.findRow(ctx, transactionID)
	if err != nil {
		return err
	}
	if rowNum == 0 {
		return nil
	}

	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowNum - 1),
					EndIndex:   int64(rowNum),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", rowNum, c.sheetName, err)
	}
	slog.InfoContext(ctx, "Removed mirrored transaction row", "transaction_id", transactionID, "row", rowNum)
	return nil
}

// findRow returns the 1-based row holding the transaction ID in column A,
// or 0 if absent.
func (c *Client) findRow(ctx context.Context, transactionID string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read ID column of %s: %w", c.sheetName, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == transactionID {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	if c.sheetIDReady {
		return c.sheetID, nil
	}

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == c.sheetName {
			c.sheetID = sheet.Properties.SheetId
			c.sheetIDReady = true
			return c.sheetID, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}
