// Package updater runs scheduled batch price updates across the monitored
// vendors: one orchestrated pass that extracts each vendor's menu through
// the shared browser session and writes it to the store.
package updater

import "time"

// Schedule is a weekly fire pattern: the run starts at Hour:Minute on each
// listed day. Empty Days means every day.
type Schedule struct {
	Days   []string `yaml:"days"` // "mon".."sun"
	Hour   int      `yaml:"hour"`
	Minute int      `yaml:"minute"`
}

// Config configures the updater.
type Config struct {
	// Enabled gates the schedule trigger. Manual runs work regardless.
	Enabled bool `yaml:"enabled"`

	Schedule Schedule `yaml:"schedule"`

	// MaxVendorsPerRun caps how many vendors one run processes. Default: 50.
	MaxVendorsPerRun int `yaml:"max_vendors_per_run"`

	// DelayBetweenVendors is the pause between consecutive vendors, so the
	// storefront never sees back-to-back page loads. Default: 3s.
	DelayBetweenVendors time.Duration `yaml:"delay_between_vendors"`

	// RetryAttempts bounds browser session creation retries. Default: 3.
	RetryAttempts int `yaml:"retry_attempts"`

	// VendorTimeout bounds one vendor's extraction. Default: 90s.
	VendorTimeout time.Duration `yaml:"vendor_timeout"`
}

func (c *Config) defaults() {
	if c.MaxVendorsPerRun <= 0 {
		c.MaxVendorsPerRun = 50
	}
	if c.DelayBetweenVendors <= 0 {
		c.DelayBetweenVendors = 3 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.VendorTimeout <= 0 {
		c.VendorTimeout = 90 * time.Second
	}
}
