package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
)

// BudgetReportWriter stores a chapter's budget overview somewhere outside
// the dashboard, e.g. a spreadsheet.
type BudgetReportWriter interface {
	WriteBudgetReport(ctx context.Context, chapter core.Chapter, ov core.BudgetOverview) error
}

type ExportProcessorConfig struct {
	// Interval between export runs (default: 1h).
	Interval time.Duration

	// Concurrency is how many chapters are exported at once (default: 4).
	Concurrency int
}

func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		Interval:    time.Hour,
		Concurrency: 4,
	}
}

// ExportProcessor periodically writes every chapter's budget overview to a
// BudgetReportWriter.
type ExportProcessor struct {
	chapters datastore.ChapterLister
	budgets  *BudgetService
	writer   BudgetReportWriter
	config   ExportProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportProcessor(
	chapters datastore.ChapterLister,
	budgets *BudgetService,
	writer BudgetReportWriter,
	config ExportProcessorConfig,
) *ExportProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultExportProcessorConfig().Interval
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultExportProcessorConfig().Concurrency
	}
	return &ExportProcessor{
		chapters: chapters,
		budgets:  budgets,
		writer:   writer,
		config:   config,
	}
}

// Start begins the export loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx, p.stopCh, p.doneCh)

	slog.InfoContext(ctx, "Export processor started",
		"interval", p.config.Interval,
		"concurrency", p.config.Concurrency)
	return nil
}

// Stop signals the loop and waits for the current run to finish. It is
// safe to call more than once.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	doneCh := p.doneCh
	p.mu.Unlock()

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}
	return nil
}

func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	defer p.finished(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.runOnce(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

// finished clears running when the loop ends on its own, unless a newer
// run has already started.
func (p *ExportProcessor) finished(doneCh chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doneCh == doneCh {
		p.running = false
	}
}

func (p *ExportProcessor) runOnce(ctx context.Context) {
	n, err := p.ExportAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Budget export failed", "exported", n, "error", err)
		return
	}
	slog.InfoContext(ctx, "Budget export finished", "exported", n)
}

// ExportAll writes one report per chapter that has a budget and returns how
// many were written. A failing chapter does not stop the others; their
// errors are joined.
func (p *ExportProcessor) ExportAll(ctx context.Context) (int, error) {
	chapters, err := p.chapters.ListChapters(ctx)
	if err != nil {
		return 0, fmt.Errorf("list chapters: %w", err)
	}

	var (
		mu       sync.Mutex
		exported int
		errs     []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)
	for _, ch := range chapters {
		g.Go(func() error {
			ok, err := p.exportChapter(gctx, ch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			} else if ok {
				exported++
			}
			return nil
		})
	}
	g.Wait()

	return exported, errors.Join(errs...)
}

func (p *ExportProcessor) exportChapter(ctx context.Context, ch core.Chapter) (bool, error) {
	ov, err := p.budgets.Overview(ctx, ch.ID)
	if err != nil {
		return false, fmt.Errorf("chapter %s: %w", ch.ID, err)
	}
	if !ov.HasBudget {
		return false, nil
	}
	if err := p.writer.WriteBudgetReport(ctx, ch, ov); err != nil {
		return false, fmt.Errorf("chapter %s: write report: %w", ch.ID, err)
	}
	slog.DebugContext(ctx, "Exported budget report", "chapter_id", ch.ID, "period", ov.Budget.PeriodLabel)
	return true, nil
}
