package updater

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/pricewatch/extract"
	"github.com/hazyhaar/pricewatch/idgen"
	"github.com/hazyhaar/pricewatch/store"
)

// ErrRunInProgress is returned when a run is requested while another run
// is active. At most one run exists at a time.
var ErrRunInProgress = errors.New("updater: run already in progress")

// MenuExtractor extracts a vendor's menu. Implemented by extract.Extractor;
// tests substitute fakes.
type MenuExtractor interface {
	Extract(ctx context.Context, vendorName, url string) (*extract.Menu, error)
}

// Orchestrator owns the batch run lifecycle: list enabled vendors, cap,
// process them sequentially with failure isolation, persist the outcome.
type Orchestrator struct {
	store     *store.Store
	extractor MenuExtractor
	cfg       Config
	logger    *slog.Logger
	newID     idgen.Generator

	mu      sync.Mutex
	running bool
	current *Session // active run, or the last finished one
}

// New creates an Orchestrator.
func New(st *store.Store, ex MenuExtractor, cfg Config, logger *slog.Logger) *Orchestrator {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     st,
		extractor: ex,
		cfg:       cfg,
		logger:    logger,
		newID:     idgen.Prefixed("run_", idgen.Default),
	}
}

// Run executes one batch update synchronously and returns the finished
// session. An explicit vendorIDs subset restricts the run to those
// vendors; empty means every enabled vendor. Returns ErrRunInProgress
// when another run is active.
func (o *Orchestrator) Run(ctx context.Context, vendorIDs ...string) (*Session, error) {
	sess, err := o.begin()
	if err != nil {
		return nil, err
	}
	final := o.execute(ctx, sess, vendorIDs)
	return &final, nil
}

// Start launches a batch update in the background and returns its run ID.
// Returns ErrRunInProgress when another run is active.
func (o *Orchestrator) Start(ctx context.Context, vendorIDs ...string) (string, error) {
	sess, err := o.begin()
	if err != nil {
		return "", err
	}
	go o.execute(ctx, sess, vendorIDs)
	return sess.ID, nil
}

// Snapshot returns a copy of the active or most recent session. The bool
// is false before the first run.
func (o *Orchestrator) Snapshot() (Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return Session{Status: StatusIdle}, false
	}
	return o.current.clone(), true
}

// Running reports whether a run is active.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// begin claims the single run slot and creates the session record.
func (o *Orchestrator) begin() (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil, ErrRunInProgress
	}

	sess := &Session{
		ID:        o.newID(),
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	o.running = true
	o.current = sess
	return sess, nil
}

// execute runs the vendor loop and finalizes the session, returning the
// finished session's state. Exactly one execute is in flight per claimed
// run slot.
func (o *Orchestrator) execute(ctx context.Context, sess *Session, vendorIDs []string) Session {
	log := o.logger.With("run_id", sess.ID)

	vendors, err := o.resolveVendors(ctx, vendorIDs)
	if err != nil {
		log.Error("updater: list vendors failed", "error", err)
		return o.finish(ctx, sess, StatusFailed, "list vendors: "+err.Error())
	}

	if len(vendors) > o.cfg.MaxVendorsPerRun {
		log.Info("updater: capping run",
			"enabled", len(vendors), "cap", o.cfg.MaxVendorsPerRun)
		vendors = vendors[:o.cfg.MaxVendorsPerRun]
	}

	o.mu.Lock()
	sess.TotalVendors = len(vendors)
	o.mu.Unlock()

	log.Info("updater: run started", "vendors", len(vendors))

	cancelled := false
	for i, v := range vendors {
		o.mu.Lock()
		sess.CurrentVendor = v.Name
		o.mu.Unlock()

		res := o.processVendor(ctx, v)

		o.mu.Lock()
		sess.CurrentVendor = ""
		sess.Results = append(sess.Results, res)
		if res.Success {
			sess.Succeeded++
			sess.ItemsUpdated += res.ItemsUpdated
		} else {
			sess.Failed++
		}
		o.mu.Unlock()

		if i < len(vendors)-1 {
			if err := sleepCtx(ctx, o.cfg.DelayBetweenVendors); err != nil {
				log.Warn("updater: run interrupted", "error", err,
					"processed", i+1, "total", len(vendors))
				cancelled = true
				break
			}
		}
	}

	if cancelled {
		return o.finish(ctx, sess, StatusFailed, "run interrupted: "+ctx.Err().Error())
	}
	return o.finish(ctx, sess, StatusCompleted, "")
}

// resolveVendors turns an optional explicit ID subset into the vendor
// list for this run. No subset means every enabled vendor; an explicit
// subset is honored regardless of the enabled flag (manual runs may
// target paused vendors) and keeps the stored ordering. Unknown IDs are
// dropped.
func (o *Orchestrator) resolveVendors(ctx context.Context, vendorIDs []string) ([]*store.Vendor, error) {
	if len(vendorIDs) == 0 {
		return o.store.ListVendors(ctx, true)
	}

	all, err := o.store.ListVendors(ctx, false)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(vendorIDs))
	for _, id := range vendorIDs {
		want[id] = true
	}
	var vendors []*store.Vendor
	for _, v := range all {
		if want[v.ID] {
			vendors = append(vendors, v)
		}
	}
	return vendors, nil
}

// processVendor extracts and stores one vendor's menu. Any failure is
// contained in the returned result; it never aborts the run.
func (o *Orchestrator) processVendor(ctx context.Context, v *store.Vendor) VendorResult {
	start := time.Now()
	res := VendorResult{VendorID: v.ID, VendorName: v.Name}

	vctx, cancel := context.WithTimeout(ctx, o.cfg.VendorTimeout)
	menu, err := o.extractor.Extract(vctx, v.Name, v.URL)
	cancel()
	res.Timestamp = time.Now()
	if err != nil {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		o.logger.Warn("updater: vendor failed",
			"vendor", v.Name, "error", err, "duration", res.Duration)
		return res
	}

	n, err := o.store.UpsertMenu(ctx, v.ID, menu)
	if err != nil {
		res.Error = "store menu: " + err.Error()
		res.Duration = time.Since(start)
		o.logger.Warn("updater: vendor store failed", "vendor", v.Name, "error", err)
		return res
	}

	res.Success = true
	res.ItemsUpdated = n
	res.Duration = time.Since(start)
	o.logger.Info("updater: vendor updated",
		"vendor", v.Name, "items", n, "duration", res.Duration)
	return res
}

// finish closes the session, releases the run slot, and persists the
// outcome, returning a copy of the session taken from sess itself. The
// caller must not read o.current instead: once the slot is released a
// new run may replace it. Persistence is best effort: a write failure is
// logged, never surfaced.
func (o *Orchestrator) finish(ctx context.Context, sess *Session, status Status, errMsg string) Session {
	o.mu.Lock()
	sess.Status = status
	sess.FinishedAt = time.Now()
	sess.Error = errMsg
	sess.CurrentVendor = ""
	row := &store.UpdateSession{
		ID:           sess.ID,
		Status:       string(status),
		StartedAt:    sess.StartedAt.UnixMilli(),
		FinishedAt:   sess.FinishedAt.UnixMilli(),
		TotalVendors: sess.TotalVendors,
		Succeeded:    sess.Succeeded,
		Failed:       sess.Failed,
		ItemsUpdated: sess.ItemsUpdated,
		Error:        sess.Error,
	}
	o.mu.Unlock()

	o.logger.Info("updater: run finished",
		"run_id", sess.ID, "status", status,
		"succeeded", row.Succeeded, "failed", row.Failed,
		"items_updated", row.ItemsUpdated)

	// The run's own ctx may already be cancelled; the history row should
	// still land.
	if err := o.store.InsertSession(context.WithoutCancel(ctx), row); err != nil {
		o.logger.Warn("updater: persist session failed", "run_id", sess.ID, "error", err)
	}

	// Release the slot only after the history row is written, so a caller
	// that observed the run as finished also sees it in history.
	o.mu.Lock()
	final := sess.clone()
	o.running = false
	o.mu.Unlock()
	return final
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
