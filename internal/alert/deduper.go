package alert

import (
	"sync"
	"time"

	"github.com/priceops/dealwatch/internal/model"
)

// Deduper suppresses repeat notifications of the same deal signature for
// the length of the cooldown. Safe for concurrent use.
type Deduper struct {
	mu       sync.Mutex
	cooldown time.Duration
	seen     map[string]model.AlertLogEntry
}

// NewDeduper creates a Deduper with the given cooldown.
func NewDeduper(cooldown time.Duration) *Deduper {
	return &Deduper{
		cooldown: cooldown,
		seen:     map[string]model.AlertLogEntry{},
	}
}

// ShouldNotify reports whether the candidate's signature is new or its
// cooldown has lapsed. A true return commits the signature: the caller is
// expected to notify, and an immediate repeat of the same signature
// returns false. The entry stays committed even if delivery later fails,
// so a flapping notifier cannot spam the same deal every tick.
func (d *Deduper) ShouldNotify(c model.DealCandidate, now time.Time) bool {
	sig := c.Signature()

	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.seen[sig]; ok && now.Before(entry.CooldownExpires) {
		return false
	}
	d.seen[sig] = model.AlertLogEntry{
		Signature:       sig,
		FirstNotifiedAt: now,
		CooldownExpires: now.Add(d.cooldown),
	}
	return true
}

// Prune drops entries whose cooldown has expired. Called periodically so
// the map does not grow with every price the watchlist has ever hit.
func (d *Deduper) Prune(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for sig, entry := range d.seen {
		if !now.Before(entry.CooldownExpires) {
			delete(d.seen, sig)
		}
	}
}

// Len returns the number of live entries.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
