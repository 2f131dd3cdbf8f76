package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"worklens/internal/core"
	applog "worklens/internal/log"
)

// SheetsSource pulls monthly billing data straight from a Google
// spreadsheet, as an alternative to manual xlsx uploads.
type SheetsSource struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// NewSheetsSourceFromEnv creates a source using service account credentials.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewSheetsSourceFromEnv(ctx context.Context) (*SheetsSource, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	credentialsJSON, err := readCredentials()
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsSource{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func readCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	credentialsJSON, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return credentialsJSON, nil
}

// Fetch reads every monthly billing sheet of the spreadsheet, in parallel.
// Record order follows the spreadsheet's sheet order regardless of which
// fetch finishes first.
func (s *SheetsSource) Fetch(ctx context.Context) ([]core.WorkRecord, error) {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Fields("sheets.properties.title").Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet metadata: %w", err)
	}

	var titles []string
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && strings.Contains(sheet.Properties.Title, SheetMarker) {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheet matching %q", SheetMarker)
	}

	perSheet := make([][]core.WorkRecord, len(titles))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, title := range titles {
		g.Go(func() error {
			records, err := s.fetchSheet(gctx, title)
			if err != nil {
				return err
			}
			mu.Lock()
			perSheet[i] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []core.WorkRecord
	for _, batch := range perSheet {
		records = append(records, batch...)
	}
	slog.InfoContext(ctx, "Spreadsheet fetched",
		applog.FieldComponent, applog.ComponentIngest,
		"sheets", len(titles), applog.FieldRecords, len(records))
	return records, nil
}

func (s *SheetsSource) fetchSheet(ctx context.Context, title string) ([]core.WorkRecord, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, fmt.Sprintf("'%s'!A:J", title)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", title, err)
	}

	var records []core.WorkRecord
	for i, row := range resp.Values {
		if i < headerRows {
			continue
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		rec, ok := RecordFromRow(cells, title)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
