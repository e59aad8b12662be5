// Package summary orchestrates the poetic summaries of timeline months. The orchestrator decides whether there
// is anything to summarize; the Summarizer collaborator turns memories into text and never fails.
package summary

import (
	"context"
	"sync"

	"wuyrush.io/chronos/common/metrics"
	"wuyrush.io/chronos/i18n"
	md "wuyrush.io/chronos/models"
	"wuyrush.io/chronos/timeline"
)

// Memory is what a summarizer gets to see of a capsule
type Memory struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Request asks for the summary of the memories of a single month
type Request struct {
	DateKey  string
	Lang     i18n.Language
	Memories []Memory
}

// Summarizer turns memories into a short text. Implementations must return non-empty text, converting their
// own failures into a fallback text.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) string
}

// Orchestrator answers summary requests of timeline months
type Orchestrator struct {
	summarizer Summarizer
}

func NewOrchestrator(s Summarizer) *Orchestrator {
	return &Orchestrator{summarizer: s}
}

// RequestSummary summarizes the capsules of all occurring in the given month. A month without capsules is
// answered with a fixed text and never reaches the summarizer; otherwise the summarizer is called exactly once
// and its text is returned verbatim.
func (o *Orchestrator) RequestSummary(ctx context.Context, year, month int, lang i18n.Language, all []*md.Capsule) string {
	matches := timeline.BucketByYearMonth(all, year, month)
	if len(matches) == 0 {
		metrics.SummaryRequests.WithLabelValues("void").Inc()
		return i18n.T(lang, i18n.KeyEmptyVoid)
	}
	memories := make([]Memory, len(matches))
	for i, c := range matches {
		memories[i] = Memory{Title: c.Title, Message: c.Message}
	}
	text := o.summarizer.Summarize(ctx, Request{
		DateKey:  timeline.DateKey(year, month),
		Lang:     lang,
		Memories: memories,
	})
	metrics.SummaryRequests.WithLabelValues("generated").Inc()
	return text
}

// Gate admits at most one pending summary request per visitor
type Gate struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewGate() *Gate {
	return &Gate{pending: make(map[string]struct{})}
}

// Enter marks visitor busy. It returns false if visitor already is; otherwise the caller must invoke the
// returned release func once done.
func (g *Gate) Enter(visitor string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[visitor]; busy {
		metrics.SummaryRequests.WithLabelValues("busy").Inc()
		return nil, false
	}
	g.pending[visitor] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.pending, visitor)
			g.mu.Unlock()
		})
	}, true
}
