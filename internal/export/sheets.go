// Package export uploads ratings to Google Sheets.
package export

import (
	"context"
	"fmt"
	"math"
	"regexp"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/verte-zerg/drumrate/internal/model"
	"github.com/verte-zerg/drumrate/internal/recommend"
	"github.com/verte-zerg/drumrate/internal/stats"
)

// SheetsClient writes reports into one sheet of a spreadsheet.
type SheetsClient struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// NewSheetsClient creates a client authenticated with service account credentials.
func NewSheetsClient(ctx context.Context, credentialsJSON []byte, sheetURL, sheetName string) (*SheetsClient, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return newSheetsClient(ctx, sheetURL, sheetName, option.WithHTTPClient(config.Client(ctx)))
}

func newSheetsClient(ctx context.Context, sheetURL, sheetName string, opts ...option.ClientOption) (*SheetsClient, error) {
	if sheetName == "" {
		return nil, fmt.Errorf("sheet name is required")
	}
	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, err
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsClient{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("could not extract spreadsheet ID from URL: %s", url)
	}
	return matches[1], nil
}

// Upload replaces the sheet content with rows.
func (c *SheetsClient) Upload(ctx context.Context, rows [][]any) error {
	clearRange := fmt.Sprintf("%s!A:Z", c.sheetName)
	if _, err := c.service.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}
	writeRange := fmt.Sprintf("%s!A1", c.sheetName)
	_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write to sheet: %w", err)
	}
	return nil
}

// BuildRows lays out the summary, the top list of dim and the recommendations
// as sheet rows.
func BuildRows(r stats.Report, dim model.Dimension, recs []recommend.Recommendation) [][]any {
	rows := [][]any{
		{"Overall", round2(r.Summary.Overall), "Rated", r.Summary.Rated},
	}
	if r.HasLast {
		rows = append(rows, []any{"Previous", round2(r.LastOverall), "Diff", r.RatingDiff()})
	}
	for _, d := range model.AllDimensions {
		if d == model.DimRating {
			continue
		}
		rows = append(rows, []any{d.Label(), round2(r.Summary.Radar.Get(d))})
	}

	top := r.Top[dim]
	rows = append(rows, []any{}, []any{fmt.Sprintf("Top %d %s", len(top), dim.Label())},
		[]any{"#", "ID", "Level", "Title", "Constant", dim.Label(), "Max", "Great", "Good", "Bad"})
	for i, e := range top {
		rows = append(rows, []any{
			i + 1, e.ID, int(e.Level), e.Title, e.Constant,
			round2(dim.Of(e.SongStats)), round2(e.Ceiling.Get(dim)),
			e.Great, e.Good, e.Bad,
		})
	}

	rows = append(rows, []any{}, []any{"Recommendations"},
		[]any{"#", "ID", "Level", "Title", "Constant", "Max", "Potential", "Score", "Status"})
	for i, rec := range recs {
		status := "played"
		if rec.Unplayed {
			status = "unplayed"
		}
		rows = append(rows, []any{
			i + 1, rec.Chart.ID, int(rec.Chart.Tier), rec.Stats.Title, rec.Chart.Data.Constant,
			round2(rec.Ceiling), round2(rec.Potential), round2(rec.Score), status,
		})
	}
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
