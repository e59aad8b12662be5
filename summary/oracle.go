package summary

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"wuyrush.io/chronos/common/logging"
	"wuyrush.io/chronos/common/metrics"
	"wuyrush.io/chronos/i18n"
)

const (
	DefaultOracleTimeout = 20 * time.Second
	DefaultOracleRate    = 1.0

	kindSummary = "summary"
	kindEpitaph = "epitaph"
)

// Completer generates text out of a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Oracle is the Summarizer backed by a text generation API. It also crafts epitaphs for draft capsules.
type Oracle struct {
	completer Completer
	limiter   *rate.Limiter
	timeout   time.Duration
	cache     Cache
}

type OracleOption func(*Oracle)

// WithTimeout bounds every text generation call
func WithTimeout(t time.Duration) OracleOption {
	return func(o *Oracle) {
		o.timeout = t
	}
}

// WithRate throttles text generation calls to perSec, with bursts of up to burst calls
func WithRate(perSec float64, burst int) OracleOption {
	return func(o *Oracle) {
		o.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithCache caches generated summaries in c
func WithCache(c Cache) OracleOption {
	return func(o *Oracle) {
		o.cache = c
	}
}

// NewOracle returns an oracle backed by c. A nil c yields a silent oracle, which answers every summary with a
// fixed text and every epitaph with the message itself.
func NewOracle(c Completer, opts ...OracleOption) *Oracle {
	o := &Oracle{
		completer: c,
		limiter:   rate.NewLimiter(rate.Limit(DefaultOracleRate), 1),
		timeout:   DefaultOracleTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Oracle) Summarize(ctx context.Context, req Request) string {
	if o.completer == nil {
		logging.WithFuncName().Warn("oracle API key is missing, collective memory remains in shadows")
		metrics.OracleCalls.WithLabelValues(kindSummary, "silent").Inc()
		return i18n.T(req.Lang, i18n.KeySilentStars)
	}
	key := cacheKey(req)
	if o.cache != nil {
		if text, ok := o.cache.Get(key); ok {
			return text
		}
	}
	text, err := o.complete(ctx, kindSummary, summaryPrompt(req))
	if err != nil {
		logging.WithFuncName().WithError(err).WithField("dateKey", req.DateKey).Error("failed generating summary")
		return i18n.T(req.Lang, i18n.KeyScatteredWords)
	}
	if o.cache != nil {
		o.cache.Set(key, text)
	}
	return text
}

// Epitaph turns message into a short poetic epitaph. It falls back to message itself.
func (o *Oracle) Epitaph(ctx context.Context, message string) string {
	if o.completer == nil || strings.TrimSpace(message) == "" {
		metrics.OracleCalls.WithLabelValues(kindEpitaph, "silent").Inc()
		return message
	}
	prompt := fmt.Sprintf("Transform this memory into a short poetic epitaph for a star in a galaxy: %q", message)
	text, err := o.complete(ctx, kindEpitaph, prompt)
	if err != nil {
		logging.WithFuncName().WithError(err).Error("failed generating epitaph")
		return message
	}
	return text
}

func (o *Oracle) complete(ctx context.Context, kind, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.limiter.Wait(ctx); err != nil {
		metrics.OracleCalls.WithLabelValues(kind, "error").Inc()
		return "", fmt.Errorf("rate limiter error: %w", err)
	}
	start := time.Now()
	text, err := o.completer.Complete(ctx, prompt)
	metrics.OracleCallDuration.Observe(time.Since(start).Seconds())
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("empty response from text generation API")
	}
	if err != nil {
		metrics.OracleCalls.WithLabelValues(kind, "error").Inc()
		return "", err
	}
	metrics.OracleCalls.WithLabelValues(kind, "success").Inc()
	log.WithFields(log.Fields{"kind": kind, "latency": time.Since(start)}).Debug("generated text")
	return strings.TrimSpace(text), nil
}

func summaryPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Below are capsules (memories) left by people for the date %s.\n", req.DateKey)
	b.WriteString("Please provide a poetic, cosmic summary of these collective memories.\n")
	b.WriteString("Keep it under 3 sentences. Use a theme of stars, time, and legacy.\n")
	fmt.Fprintf(&b, "Answer in %s.\n\nMemories:\n", i18n.T(req.Lang, i18n.KeyLanguageName))
	for _, m := range req.Memories {
		fmt.Fprintf(&b, "- %s: %s\n", m.Title, m.Message)
	}
	return b.String()
}

// cacheKey identifies the summary of req. Any change to the memories of a month yields a new key.
func cacheKey(req Request) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s", req.Lang, req.DateKey)
	for _, m := range req.Memories {
		fmt.Fprintf(h, "\x00%s\x00%s", m.Title, m.Message)
	}
	return fmt.Sprintf("chronos:summary:%s:%x", req.DateKey, h.Sum64())
}
