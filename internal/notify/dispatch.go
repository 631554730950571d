package notify

import (
	"context"
	"sync"

	"github.com/brightears/zonewatch/internal/logging"
)

// Dispatcher fans one alert out to every registered channel. Each channel
// gets exactly one attempt per recipient: retry policy belongs to the caller,
// not here.
type Dispatcher struct {
	entries []entry
	// sink receives every Result as it is produced (e.g. the notification log)
	sink func(Result)

	wg sync.WaitGroup
}

type entry struct {
	service    Service
	recipients []string
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Add registers a channel with its recipient list. Nil services are ignored.
func (d *Dispatcher) Add(s Service, recipients []string) {
	if s == nil || len(recipients) == 0 {
		return
	}
	d.entries = append(d.entries, entry{service: s, recipients: recipients})
}

// Len returns the number of registered channels.
func (d *Dispatcher) Len() int {
	return len(d.entries)
}

// SetSink registers a callback invoked for every Result produced by
// Broadcast. Must be called before the first Broadcast.
func (d *Dispatcher) SetSink(fn func(Result)) {
	d.sink = fn
}

// Broadcast sends the message to all channels concurrently; recipients within
// a channel are handled sequentially. Returns every per-recipient Result.
func (d *Dispatcher) Broadcast(ctx context.Context, message string) []Result {
	var (
		out   []Result
		outMu sync.Mutex
	)
	collect := func(results []Result) {
		for _, r := range results {
			if r.OK() {
				logging.Get().Debug().Str("channel", r.Channel).Str("recipient", r.Recipient).Str("message_id", r.MessageID).Msg("notification sent")
			} else {
				logging.Get().Warn().Err(r.Err).Str("channel", r.Channel).Str("recipient", r.Recipient).Msg("notification failed")
			}
			if d.sink != nil {
				d.sink(r)
			}
		}
		outMu.Lock()
		out = append(out, results...)
		outMu.Unlock()
	}

	var passWg sync.WaitGroup
	for _, en := range d.entries {
		d.wg.Add(1)
		passWg.Add(1)
		go func(en entry) {
			defer d.wg.Done()
			defer passWg.Done()
			if b, ok := en.service.(Batcher); ok {
				collect(b.SendBatch(ctx, en.recipients, message))
				return
			}
			results := make([]Result, 0, len(en.recipients))
			for _, to := range en.recipients {
				results = append(results, en.service.Send(ctx, to, message))
			}
			collect(results)
		}(en)
	}
	passWg.Wait()

	outMu.Lock()
	defer outMu.Unlock()
	return out
}

// Wait blocks until pending sends complete or the context is cancelled.
// Broadcast is synchronous, so this only matters when Broadcast itself runs
// in a background goroutine during shutdown.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
