package browser

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.defaults()

	if cfg.StartPage != "about:blank" {
		t.Errorf("StartPage = %q, want about:blank", cfg.StartPage)
	}
	if cfg.MaxCreateAttempts != 3 {
		t.Errorf("MaxCreateAttempts = %d, want 3", cfg.MaxCreateAttempts)
	}
	if cfg.CreateRetryDelay != 2*time.Second {
		t.Errorf("CreateRetryDelay = %v, want 2s", cfg.CreateRetryDelay)
	}
	if cfg.NavTimeout != 30*time.Second {
		t.Errorf("NavTimeout = %v, want 30s", cfg.NavTimeout)
	}
	if cfg.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestAcquire_Closed(t *testing.T) {
	s := New(Config{})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err := s.Acquire(context.Background())
	if err == nil {
		t.Fatal("Acquire on closed session: expected error")
	}
	if !strings.Contains(err.Error(), "closed") {
		t.Errorf("error = %v, want mention of closed", err)
	}
}

func TestIsOpen_NoBrowser(t *testing.T) {
	s := New(Config{})
	if s.IsOpen() {
		t.Error("IsOpen = true for never-started session")
	}
}
