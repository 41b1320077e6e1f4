package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/pricewatch/browser"
	"github.com/hazyhaar/pricewatch/survey"
)

// Config configures the extractor.
type Config struct {
	Selectors Selectors `yaml:"selectors"`

	// ReadyTimeout bounds the wait for the first item card to render
	// after navigation. Default: 20s.
	ReadyTimeout time.Duration `yaml:"ready_timeout"`

	// ReadyPoll is the interval between readiness checks. Default: 500ms.
	ReadyPoll time.Duration `yaml:"ready_poll"`
}

func (c *Config) defaults() {
	c.Selectors.defaults()
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = 20 * time.Second
	}
	if c.ReadyPoll <= 0 {
		c.ReadyPoll = 500 * time.Millisecond
	}
}

// Extractor navigates a vendor's storefront page and extracts its menu.
// When the configured selectors come up empty, it runs the element survey
// and retries parsing with the recommended result card selectors.
type Extractor struct {
	session    *browser.Session
	classifier *survey.Classifier
	cfg        Config
	logger     *slog.Logger
}

// NewExtractor creates an Extractor on the shared browser session.
func NewExtractor(session *browser.Session, classifier *survey.Classifier, cfg Config, logger *slog.Logger) *Extractor {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		session:    session,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Extract loads the vendor page at url and returns its available items.
// vendorName backfills the restaurant name when the page does not expose
// one. An empty menu after the survey fallback is an error; the caller
// counts it as a vendor failure.
func (e *Extractor) Extract(ctx context.Context, vendorName, url string) (*Menu, error) {
	page, err := e.session.Navigate(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := e.waitReady(ctx, page); err != nil {
		e.logger.Warn("extract: page never reported ready, parsing anyway",
			"vendor", vendorName, "error", err)
	}

	pageHTML, err := readPageHTML(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("extract: %s: %w", vendorName, err)
	}

	menu, err := ParseMenu(pageHTML, e.cfg.Selectors)
	if err != nil {
		return nil, fmt.Errorf("extract: %s: %w", vendorName, err)
	}

	if menu.ItemCount() == 0 {
		menu, err = e.surveyFallback(ctx, page, pageHTML)
		if err != nil {
			return nil, fmt.Errorf("extract: %s: %w", vendorName, err)
		}
	}

	if menu.RestaurantName == "" {
		menu.RestaurantName = vendorName
	}

	before := menu.ItemCount()
	menu.FilterAvailable()
	if dropped := before - menu.ItemCount(); dropped > 0 {
		e.logger.Debug("extract: dropped unavailable items",
			"vendor", vendorName, "dropped", dropped)
	}

	if menu.ItemCount() == 0 {
		return nil, fmt.Errorf("extract: %s: no items found", vendorName)
	}

	e.logger.Info("extract: menu extracted",
		"vendor", vendorName,
		"categories", len(menu.Categories),
		"items", menu.ItemCount())
	return menu, nil
}

// waitReady polls until at least one item card matches the configured
// selector or the ready timeout elapses.
func (e *Extractor) waitReady(ctx context.Context, page *rod.Page) error {
	deadline := time.Now().Add(e.cfg.ReadyTimeout)
	for {
		has, _, err := page.Context(ctx).Has(e.cfg.Selectors.Item)
		if err == nil && has {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("no %q within %s", e.cfg.Selectors.Item, e.cfg.ReadyTimeout)
		}
		if err := sleepCtx(ctx, e.cfg.ReadyPoll); err != nil {
			return err
		}
	}
}

// surveyFallback classifies the live page and re-parses with the
// recommended result card selectors.
func (e *Extractor) surveyFallback(ctx context.Context, page *rod.Page, pageHTML string) (*Menu, error) {
	e.logger.Info("extract: configured selectors empty, running element survey")

	res, err := e.classifier.Survey(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("survey fallback: %w", err)
	}

	var cardSelectors []string
	for _, card := range res.Recommendations.ResultCards {
		cardSelectors = append(cardSelectors, card.Selector)
	}
	if len(cardSelectors) == 0 {
		return nil, fmt.Errorf("survey fallback: no result cards recommended")
	}

	menu, err := ParseCards(pageHTML, cardSelectors, e.cfg.Selectors)
	if err != nil {
		return nil, err
	}
	e.logger.Info("extract: survey fallback parsed",
		"card_selectors", len(cardSelectors), "items", menu.ItemCount())
	return menu, nil
}

const outerHTMLScript = `() => document.documentElement.outerHTML`

func readPageHTML(ctx context.Context, page *rod.Page) (string, error) {
	res, err := page.Context(ctx).Eval(outerHTMLScript)
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return res.Value.Str(), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
