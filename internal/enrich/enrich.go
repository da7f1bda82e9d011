package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"event-hub/internal/config"
	"event-hub/internal/debuglog"
	"event-hub/internal/metrics"
	"event-hub/internal/model"
)

const (
	// summaryMinLength — короткие описания не суммаризируем
	summaryMinLength = 300
	// summaryInputLimit — сколько символов описания уходит в промпт
	summaryInputLimit = 500

	categoryMaxTokens = 20
	summaryMaxTokens  = 150

	perEventTimeout = 30 * time.Second
)

// Категории, которыми ограничиваем модель при классификации
var categories = []string{
	"Music", "Sports", "Arts", "Food", "Business",
	"Health", "Technology", "Education", "Family", "Other",
}

// Enricher добавляет событиям AI-категорию, AI-резюме и оценку
// релевантности. Идёт веером с ограниченным параллелизмом; сбой на
// одном событии не трогает остальные.
type Enricher struct {
	cfg    config.EnrichmentConfig
	client *Client
	debug  *debuglog.Log
	now    func() time.Time
}

func New(cfg config.EnrichmentConfig, debug *debuglog.Log) *Enricher {
	return &Enricher{
		cfg:    cfg,
		client: NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model),
		debug:  debug,
		now:    time.Now,
	}
}

// Enabled reports whether enrichment is switched on and usable.
func (e *Enricher) Enabled() bool {
	return e != nil && e.cfg.Enabled && e.cfg.APIKey != ""
}

// Enrich returns a new slice with AI fields filled in. Входной список не
// изменяется; при выключенном обогащении или пустом входе возвращается
// он же без копирования.
func (e *Enricher) Enrich(ctx context.Context, events []model.Event) []model.Event {
	if !e.Enabled() || len(events) == 0 {
		return events
	}

	out := make([]model.Event, len(events))
	copy(out, events)

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i := range out {
		i := i
		g.Go(func() error {
			e.enrichOne(ctx, &out[i])
			return nil
		})
	}
	_ = g.Wait() // задачи ошибок не возвращают

	return out
}

func (e *Enricher) enrichOne(ctx context.Context, ev *model.Event) {
	callCtx, cancel := context.WithTimeout(ctx, perEventTimeout)
	defer cancel()

	if e.cfg.Categorize {
		resp, err := e.client.Complete(callCtx, categoryPrompt(ev), categoryMaxTokens)
		if err != nil {
			e.debug.Logf("enrich", "categorize %s: %v", ev.Key(), err)
			metrics.EnrichRequests.WithLabelValues("category", "error").Inc()
		} else {
			ev.AICategory = strings.TrimSpace(resp)
			metrics.EnrichRequests.WithLabelValues("category", "ok").Inc()
		}
	}

	if e.cfg.Summarize && len(ev.Description) > summaryMinLength {
		resp, err := e.client.Complete(callCtx, summaryPrompt(ev), summaryMaxTokens)
		if err != nil {
			e.debug.Logf("enrich", "summarize %s: %v", ev.Key(), err)
			metrics.EnrichRequests.WithLabelValues("summary", "error").Inc()
		} else {
			ev.AISummary = strings.TrimSpace(resp)
			metrics.EnrichRequests.WithLabelValues("summary", "ok").Inc()
		}
	}

	// Оценка считается всегда, даже когда вызовы API не удались
	score := Score(*ev, e.now())
	ev.AIScore = &score
}

func categoryPrompt(ev *model.Event) string {
	return fmt.Sprintf(
		"Classify this event into exactly one of the following categories: %s. "+
			"Respond with the category name only.\n\nEvent: %s\nDescription: %s",
		strings.Join(categories, ", "), ev.Title, truncateRunes(ev.Description, summaryInputLimit))
}

func summaryPrompt(ev *model.Event) string {
	return "Summarize this event description in 1-2 sentences:\n\n" +
		truncateRunes(ev.Description, summaryInputLimit)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
