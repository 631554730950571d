// Package monitor runs the polling loop: discover zones, diff against the
// last known set, dispatch alerts, persist the snapshot.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brightears/zonewatch/internal/config"
	"github.com/brightears/zonewatch/internal/logging"
	"github.com/brightears/zonewatch/internal/metrics"
	"github.com/brightears/zonewatch/internal/notify"
	"github.com/brightears/zonewatch/internal/state"
	"github.com/brightears/zonewatch/internal/syb"
)

// Discoverer enumerates the zone inventory. Implemented by *syb.Client.
type Discoverer interface {
	DiscoverAll(ctx context.Context) (*syb.Discovery, error)
}

// Broadcaster fans an alert out to the notification channels. Implemented by
// *notify.Dispatcher.
type Broadcaster interface {
	Broadcast(ctx context.Context, message string) []notify.Result
	Wait(ctx context.Context) error
}

// Monitor is the core loop.
type Monitor struct {
	cfg        *config.Config
	disc       Discoverer
	dispatcher Broadcaster

	// known is the watch list from the previous pass
	known map[string]syb.ZoneSnapshot

	quit   chan struct{}
	wg     sync.WaitGroup // tracks active passes
	cancel func()
	log    zerolog.Logger

	// Now is an injectable clock for testing.
	Now func() time.Time
}

// New creates a monitor. The previous snapshot is loaded from the state file
// so a restart does not report the whole inventory as newly added.
func New(cfg *config.Config, disc Discoverer, dispatcher Broadcaster) *Monitor {
	m := &Monitor{
		cfg:        cfg,
		disc:       disc,
		dispatcher: dispatcher,
		known:      make(map[string]syb.ZoneSnapshot),
		quit:       make(chan struct{}),
		log:        logging.With("monitor"),
		Now:        time.Now,
	}

	snap, err := state.LoadSnapshot()
	if err != nil {
		m.log.Warn().Err(err).Msg("could not load previous snapshot; starting with an empty watch list")
	} else {
		m.known = snap.Zones
	}

	for _, w := range cfg.Validate() {
		m.log.Warn().Str("warning", w).Msg("config validation")
	}
	return m
}

// Start runs the polling loop. An immediate pass runs first so operators
// don't wait a full interval for the initial inventory. All passes run on
// this goroutine: a slow pass delays the next tick instead of overlapping it.
func (m *Monitor) Start() {
	m.log.Info().Dur("interval", m.cfg.PollInterval).Msg("starting zonewatch monitor")
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.wg.Add(1)
	m.once(ctx)
	m.wg.Done()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.wg.Add(1)
			m.once(ctx)
			m.wg.Done()
		case <-m.quit:
			m.log.Info().Msg("stopping monitor")
			return
		}
	}
}

// once runs one discovery pass.
func (m *Monitor) once(ctx context.Context) {
	m.log.Info().Msg("polling zone inventory")
	metrics.IncDiscoveryRun()
	start := m.Now()

	d, err := m.disc.DiscoverAll(ctx)
	if err != nil {
		// Total failure: keep the previous watch list and treat the pass as "no change".
		m.log.Error().Err(err).Msg("discovery failed entirely; keeping previous watch list")
		metrics.IncDiscoveryFailure()
		msg := fmt.Sprintf("Zone discovery failed: %v", err)
		if m.cfg.DryRun {
			m.log.Info().Str("alert", msg).Msg("dry-run: skipping dispatch")
		} else {
			m.notify(ctx, "failure", msg)
		}
		return
	}
	metrics.ObserveDiscoveryDuration(m.Now().Sub(start).Seconds())
	metrics.SetZonesDiscovered(len(d.Zones))

	if d.Partial {
		m.log.Warn().Int("failed_accounts", len(d.AccountErrors)).Msg("discovery returned partial results")
	}

	added, removed := syb.Diff(m.known, d.Zones)
	metrics.AddZonesAdded(len(added))
	metrics.AddZonesRemoved(len(removed))

	if len(added) > 0 || len(removed) > 0 {
		msg := formatDiff(added, removed)
		m.log.Info().Int("added", len(added)).Int("removed", len(removed)).Msg("zone inventory changed")
		if m.cfg.DryRun {
			m.log.Info().Str("alert", msg).Msg("dry-run: skipping dispatch")
		} else {
			m.notify(ctx, "info", msg)
		}
	}

	if st := inventoryStatus(d.Zones); !st.Healthy() && !m.cfg.DryRun {
		m.notify(ctx, "info", notify.FormatAlert("Zone inventory", st))
	}

	m.known = d.Zones
	if err := state.SaveSnapshot(d.Zones, m.Now()); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist zone snapshot")
	}
	metrics.SetLastRun(m.Now())
}

// notify dispatches if the configured level allows it.
// level: "info" for inventory changes, "failure" for discovery problems.
func (m *Monitor) notify(ctx context.Context, level, message string) {
	configLevel := strings.ToLower(m.cfg.NotificationLevel)
	if configLevel == "none" {
		return
	}
	if configLevel == "failure" && level != "failure" {
		return
	}
	for _, r := range m.dispatcher.Broadcast(ctx, message) {
		metrics.IncNotification(r.Channel, r.OK())
	}
}

// inventoryStatus summarizes the current snapshot for the status alert.
func inventoryStatus(zones map[string]syb.ZoneSnapshot) notify.Status {
	var st notify.Status
	for _, z := range zones {
		if !z.IsPaired {
			st.Unpaired++
		}
	}
	return st
}

// formatDiff renders an inventory-change alert listing the affected zones.
func formatDiff(added, removed []string) string {
	var parts []string
	if len(added) > 0 {
		parts = append(parts, fmt.Sprintf("%d added (%s)", len(added), summarizeIDs(added)))
	}
	if len(removed) > 0 {
		parts = append(parts, fmt.Sprintf("%d removed (%s)", len(removed), summarizeIDs(removed)))
	}
	return "Zone inventory changed: " + strings.Join(parts, "; ")
}

// summarizeIDs lists up to five ids, then elides the rest.
func summarizeIDs(ids []string) string {
	const max = 5
	if len(ids) <= max {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(ids[:max], ", "), len(ids)-max)
}

// Stop signals the monitor to stop and waits for the active pass and any
// pending notifications to complete.
func (m *Monitor) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	close(m.quit)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.log.Info().Msg("all active operations completed")
	case <-ctx.Done():
		m.log.Warn().Msg("shutdown timeout exceeded, some operations may be incomplete")
	}

	if m.dispatcher != nil {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.dispatcher.Wait(notifyCtx); err != nil {
			m.log.Warn().Err(err).Msg("timed out waiting for notifiers to finish")
		}
	}
}

// RunOnce runs a single discovery pass (public wrapper for -run-once / tests).
func (m *Monitor) RunOnce() {
	m.once(context.Background())
}

// Known returns the current watch list (tests).
func (m *Monitor) Known() map[string]syb.ZoneSnapshot {
	return m.known
}
