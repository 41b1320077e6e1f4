package survey

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
)

// Classifier runs the detection strategies over a page snapshot and merges
// their proposals into one ranked recommendation set.
type Classifier struct {
	strategies []Strategy
	probeLive  bool
	screenshot bool
	logger     *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithStrategies replaces the default strategy set.
func WithStrategies(strategies ...Strategy) Option {
	return func(c *Classifier) { c.strategies = strategies }
}

// WithProber enables the behavioral strategy, which interacts with the
// live page through the given prober.
func WithProber(p Prober) Option {
	return func(c *Classifier) {
		c.strategies = append(c.strategies, Behavioral{Prober: p})
	}
}

// WithLiveProbing enables the behavioral strategy on live surveys. Each
// Survey call probes through the page it is capturing, so no prober has
// to be constructed up front; static Classify calls are unaffected.
func WithLiveProbing() Option {
	return func(c *Classifier) { c.probeLive = true }
}

// WithScreenshot attaches a page screenshot to survey results.
func WithScreenshot() Option {
	return func(c *Classifier) { c.screenshot = true }
}

// NewClassifier creates a Classifier with the default static strategies:
// semantic, pattern, visual. Behavioral is opt-in via WithProber because
// it performs real interaction.
func NewClassifier(logger *slog.Logger, opts ...Option) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{
		strategies: []Strategy{Semantic{}, Pattern{}, Visual{}},
		logger:     logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify runs every strategy over the snapshot and produces the ranked
// result. A strategy that errors or panics is dropped and the survey
// continues with the remainder; a single faulty strategy never fails the
// whole pass. Deterministic for a fixed snapshot (given deterministic
// strategies).
func (c *Classifier) Classify(snap *Snapshot) *Result {
	return c.classify(snap, c.strategies)
}

func (c *Classifier) classify(snap *Snapshot, strategies []Strategy) *Result {
	var all []Element
	for _, s := range strategies {
		found, err := runStrategy(s, snap)
		if err != nil {
			c.logger.Warn("survey: strategy dropped",
				"strategy", s.Name(), "error", err)
			continue
		}
		all = append(all, found...)
	}

	merged := dedupe(all)
	rank(merged)

	res := &Result{
		PageURL:         snap.PageURL,
		Timestamp:       time.Now(),
		Title:           snap.Title,
		Description:     snap.Description,
		Elements:        merged,
		Recommendations: recommend(merged),
	}

	c.logger.Debug("survey: classified",
		"url", snap.PageURL,
		"candidates", len(merged),
		"cards", len(res.Recommendations.ResultCards))
	return res
}

// Survey captures a snapshot from the live page and classifies it.
func (c *Classifier) Survey(ctx context.Context, page *rod.Page) (*Result, error) {
	snap, err := Capture(ctx, page)
	if err != nil {
		return nil, err
	}
	res := c.classify(snap, c.surveyStrategies(page))

	if c.screenshot {
		if shot, err := page.Context(ctx).Screenshot(false, nil); err == nil {
			res.Screenshot = shot
		} else {
			c.logger.Warn("survey: screenshot failed", "url", snap.PageURL, "error", err)
		}
	}
	return res, nil
}

// surveyStrategies returns the strategy set for a live survey, appending
// the behavioral prober bound to page when live probing is enabled.
func (c *Classifier) surveyStrategies(page *rod.Page) []Strategy {
	if !c.probeLive {
		return c.strategies
	}
	out := make([]Strategy, len(c.strategies), len(c.strategies)+1)
	copy(out, c.strategies)
	return append(out, Behavioral{Prober: &PageProber{Page: page}})
}

// runStrategy isolates one strategy. Rod helpers panic on CDP failures, so
// a recover here is what keeps one broken selector API from killing the
// survey.
func runStrategy(s Strategy, snap *Snapshot) (found []Element, err error) {
	defer func() {
		if r := recover(); r != nil {
			found = nil
			err = fmt.Errorf("survey: strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Detect(snap)
}
