// Package browser owns exactly one live Chrome instance and the single tab
// pricewatch scrapes with. Acquire hands out a usable page, detecting a dead
// browser and running a bounded reinitialize-or-recreate recovery ladder.
// It never creates a second concurrent browser.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the browser session.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// StartPage is the neutral page navigated to after creation, so the
	// session carries realistic history before the first storefront visit.
	// Default: "about:blank".
	StartPage string

	// UserAgent overrides the browser user agent when non-empty.
	UserAgent string

	// MaxCreateAttempts bounds full session creation retries. Default: 3.
	MaxCreateAttempts int

	// CreateRetryDelay is the fixed wait between creation attempts. Default: 2s.
	CreateRetryDelay time.Duration

	// NavTimeout bounds a single navigation. Default: 30s.
	NavTimeout time.Duration

	// SettleDelay is the pause after load before the DOM is considered
	// stable enough to survey. Default: 2s.
	SettleDelay time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.StartPage == "" {
		c.StartPage = "about:blank"
	}
	if c.MaxCreateAttempts <= 0 {
		c.MaxCreateAttempts = 3
	}
	if c.CreateRetryDelay <= 0 {
		c.CreateRetryDelay = 2 * time.Second
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session manages the single live browser/page pair.
type Session struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
	closed  bool
}

// New creates a Session. No browser is launched until the first Acquire.
func New(cfg Config) *Session {
	cfg.defaults()
	return &Session{cfg: cfg}
}

// Acquire returns a usable page, creating or recovering the browser as
// needed:
//
//  1. no session yet → create one
//  2. session healthy → return it unchanged
//  3. session dead → reinitialize the page in place once; if that fails,
//     dispose everything and create a brand-new session
func (s *Session) Acquire(ctx context.Context) (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("browser: session is closed")
	}

	if s.browser == nil {
		if err := s.createLocked(ctx); err != nil {
			return nil, err
		}
		return s.page, nil
	}

	if s.isOpenLocked() {
		return s.page, nil
	}

	// Recovery ladder: one in-place reinitialize, then full recreation.
	if err := s.reinitLocked(ctx); err == nil {
		s.cfg.Logger.Info("browser: reinitialized page in place")
		return s.page, nil
	} else {
		s.cfg.Logger.Warn("browser: reinitialize failed, recreating session", "error", err)
	}

	s.disposeLocked()
	if err := s.createLocked(ctx); err != nil {
		return nil, err
	}
	return s.page, nil
}

// IsOpen reports whether the session is fully usable: browser handle
// present, CDP connection responsive, and page handle present. A session
// missing any one of these is considered closed.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.isOpenLocked()
}

// Navigate acquires the session, navigates its page to url, waits for the
// load event, and pauses for the settle delay. Recovery happens inside
// Acquire; a navigation failure is returned to the caller as-is.
func (s *Session) Navigate(ctx context.Context, url string) (*rod.Page, error) {
	p, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := p.Context(navCtx).Navigate(url); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.Context(navCtx).WaitLoad(); err != nil {
		s.cfg.Logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}

	if err := sleepCtx(ctx, s.cfg.SettleDelay); err != nil {
		return nil, err
	}
	return p, nil
}

// Close shuts down the browser. The session cannot be reused afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.disposeLocked()
	return nil
}

func (s *Session) isOpenLocked() bool {
	if s.browser == nil || s.page == nil {
		return false
	}
	// Cheap CDP round-trip: a dead Chrome fails here even when the
	// handles still look valid.
	if _, err := (proto.BrowserGetVersion{}).Call(s.browser); err != nil {
		return false
	}
	return true
}

// createLocked launches Chrome and opens the stealth page, retrying up to
// MaxCreateAttempts with a fixed delay. Exhausting the attempts surfaces
// the last error to the caller.
func (s *Session) createLocked(ctx context.Context) error {
	log := s.cfg.Logger
	var lastErr error

	for attempt := 1; attempt <= s.cfg.MaxCreateAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, s.cfg.CreateRetryDelay); err != nil {
				return err
			}
		}

		if err := s.launchLocked(ctx); err != nil {
			lastErr = err
			log.Warn("browser: create attempt failed",
				"attempt", attempt, "max", s.cfg.MaxCreateAttempts, "error", err)
			s.disposeLocked()
			continue
		}

		log.Info("browser: session created", "attempt", attempt, "start_page", s.cfg.StartPage)
		return nil
	}

	return fmt.Errorf("browser: create session after %d attempts: %w",
		s.cfg.MaxCreateAttempts, lastErr)
}

func (s *Session) launchLocked(ctx context.Context) error {
	var wsURL string

	if s.cfg.RemoteURL != "" {
		wsURL = s.cfg.RemoteURL
		s.cfg.Logger.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(true)
		// Anti-detection flags.
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b

	return s.openPageLocked(ctx)
}

// openPageLocked opens the stealth page on the current browser, applies
// the user-agent override, and navigates to the neutral start page.
func (s *Session) openPageLocked(ctx context.Context) error {
	p, err := stealth.Page(s.browser)
	if err != nil {
		return fmt.Errorf("browser: stealth page: %w", err)
	}

	if s.cfg.UserAgent != "" {
		override := proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent}
		if err := override.Call(p); err != nil {
			s.cfg.Logger.Warn("browser: user agent override failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()
	if err := p.Context(navCtx).Navigate(s.cfg.StartPage); err != nil {
		p.Close()
		return fmt.Errorf("browser: navigate start page: %w", err)
	}

	s.page = p
	return nil
}

// reinitLocked tries to recover without killing Chrome: close the stale
// page and open a fresh one on the existing browser connection.
func (s *Session) reinitLocked(ctx context.Context) error {
	if s.browser == nil {
		return fmt.Errorf("browser: no browser to reinitialize")
	}
	if _, err := (proto.BrowserGetVersion{}).Call(s.browser); err != nil {
		return fmt.Errorf("browser: connection dead: %w", err)
	}

	if s.page != nil {
		s.page.Close()
		s.page = nil
	}
	return s.openPageLocked(ctx)
}

func (s *Session) disposeLocked() {
	if s.page != nil {
		s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
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
