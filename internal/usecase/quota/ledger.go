// Package quota implements the per-client free-tier ledger and the request gate on top of it.
package quota

import (
	"sync"
	"time"

	domquota "github.com/kailas-cloud/postgen/internal/domain/quota"
	"github.com/kailas-cloud/postgen/internal/metrics"
)

// Ledger maps client identifiers to usage records. It lives for the lifetime of the process.
// The map is guarded by mu; each record is guarded by its entry's own mutex so that the
// reset-check-increment sequence for one client is serialized without blocking other clients.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*entry
	window  time.Duration
}

type entry struct {
	mu      sync.Mutex
	record  domquota.Record
	evicted bool
}

// NewLedger creates an empty ledger. window <= 0 falls back to 24h.
func NewLedger(window time.Duration) *Ledger {
	if window <= 0 {
		window = domquota.DefaultWindow
	}
	return &Ledger{
		entries: make(map[string]*entry),
		window:  window,
	}
}

// Window returns the counting window length.
func (l *Ledger) Window() time.Duration { return l.window }

// getOrCreate returns the entry for clientID, creating {0, now} on first contact.
func (l *Ledger) getOrCreate(clientID string, now time.Time) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[clientID]
	if !ok {
		e = &entry{record: domquota.NewRecord(now)}
		l.entries[clientID] = e
		metrics.QuotaLedgerClients.Set(float64(len(l.entries)))
	}
	return e
}

// Update runs fn on the client's record after the daily reset, holding the client's lock.
// fn must not call back into the ledger.
func (l *Ledger) Update(clientID string, now time.Time, fn func(rec *domquota.Record)) {
	for {
		e := l.getOrCreate(clientID, now)

		e.mu.Lock()
		if e.evicted {
			// Lost a race with Evict; the next getOrCreate sees a fresh entry.
			e.mu.Unlock()
			continue
		}
		e.record.ApplyReset(now, l.window)
		fn(&e.record)
		e.mu.Unlock()
		return
	}
}

// Touch creates or resets the client's record and returns a copy of it.
func (l *Ledger) Touch(clientID string, now time.Time) domquota.Record {
	var out domquota.Record
	l.Update(clientID, now, func(rec *domquota.Record) { out = *rec })
	return out
}

// Lookup returns a copy of the client's record without creating or resetting it.
func (l *Ledger) Lookup(clientID string) (domquota.Record, bool) {
	l.mu.Lock()
	e, ok := l.entries[clientID]
	l.mu.Unlock()
	if !ok {
		return domquota.Record{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record, true
}

// Len returns the number of tracked client identifiers.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Evict removes records whose window started before cutoff and returns how many were removed.
func (l *Ledger) Evict(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, e := range l.entries {
		e.mu.Lock()
		if e.record.ResetAt.Before(cutoff) {
			e.evicted = true
			delete(l.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	metrics.QuotaLedgerClients.Set(float64(len(l.entries)))
	return removed
}
