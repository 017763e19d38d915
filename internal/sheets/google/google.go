package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"chapterhub/internal/core"
	"chapterhub/internal/services"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ services.BudgetReportWriter = (*Client)(nil)

// Options selects the spreadsheet and how to authenticate. Service account
// credentials win over an OAuth client/token pair.
type Options struct {
	SpreadsheetID string
	// SheetPrefix is prepended to each chapter's tab name (default "Budget").
	SheetPrefix string

	ServiceAccountJSON string
	ServiceAccountFile string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
}

// Client writes budget reports, one tab per chapter.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetPrefix   string
	now           func() time.Time
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(opts.SheetPrefix) == "" {
		opts.SheetPrefix = "Budget"
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetPrefix:   strings.TrimSpace(opts.SheetPrefix),
		now:           time.Now,
	}, nil
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	saJSON, err := readInlineOrFile(opts.ServiceAccountJSON, opts.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account credentials: %w", err)
	}
	if len(saJSON) > 0 {
		slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
			"credentials_size", len(saJSON),
			"scope", gsheet.SpreadsheetsScope)
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}

	cfg, err := LoadOAuthConfig(opts.OAuthClientJSON, opts.OAuthClientFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(opts.OAuthTokenJSON, opts.OAuthTokenFile)
	if err != nil {
		return nil, err
	}

	// The token source refreshes through the pooled client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	slog.InfoContext(ctx, "Creating Google Sheets service with OAuth token", "expiry", tok.Expiry)
	return gsheet.NewService(ctx, goption.WithHTTPClient(oauth2.NewClient(ctx, cfg.TokenSource(ctx, tok))))
}

// newHTTPClientWithPooling is tuned for a handful of long-lived API calls.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// WriteBudgetReport replaces the chapter's tab with the current overview.
func (c *Client) WriteBudgetReport(ctx context.Context, chapter core.Chapter, ov core.BudgetOverview) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	sheet := sheetName(c.sheetPrefix, chapter)
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoteSheet(sheet), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}

	rows := reportRows(chapter, ov, c.now())
	rng := fmt.Sprintf("%s!A1", quoteSheet(sheet))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheet, err)
	}

	slog.InfoContext(ctx, "Wrote budget report to Google Sheets",
		"sheet", sheet,
		"rows", len(rows),
		"chapter_id", chapter.ID)
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created report sheet", "sheet", title)
	return nil
}

// sheetName is "<prefix> <chapter code>", falling back to the chapter id.
func sheetName(prefix string, ch core.Chapter) string {
	key := strings.TrimSpace(ch.ChapterCode)
	if key == "" {
		key = ch.ID
	}
	return strings.TrimSpace(prefix + " " + key)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// reportRows lays out the overview as a header block followed by one row
// per category.
func reportRows(ch core.Chapter, ov core.BudgetOverview, now time.Time) [][]any {
	rows := [][]any{
		{"Chapter", fmt.Sprintf("%s %s", ch.FraternityName, ch.SchoolName)},
		{"Period", ov.Budget.PeriodLabel},
		{"Total budget", ov.Budget.Total.Dollars()},
		{"Total spent", ov.TotalSpent.Dollars()},
		{"Remaining", ov.Remaining.Dollars()},
		{"Utilization %", round2(ov.Utilization)},
		{"Exported at", now.UTC().Format(time.RFC3339)},
		{},
		{"Category", "Amount", "Expenses", "% of budget"},
	}
	for _, c := range ov.ByCategory {
		rows = append(rows, []any{c.Name, c.Amount.Dollars(), c.Count, round2(c.PercentageOfBudget)})
	}
	return rows
}

func round2(f float64) float64 {
	if f < 0 {
		return -round2(-f)
	}
	return float64(int64(f*100+0.5)) / 100
}
