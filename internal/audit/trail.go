package audit

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEntries bounds in-memory retention. Oldest entries are dropped
// beyond the cap; the JSONL sink, when configured, has already persisted
// them at write time.
const DefaultMaxEntries = 10000

// recentFailureCap limits Stats.RecentFailures.
const recentFailureCap = 10

// idPrefix is the fixed prefix of every entry ID.
const idPrefix = "audit"

// Options configures a Trail.
type Options struct {
	// MaxEntries caps in-memory retention. Zero means DefaultMaxEntries;
	// negative disables the bound.
	MaxEntries int

	// Sink, when non-nil, receives every stored entry. Sink failures are
	// absorbed: logging never fails the caller's primary operation.
	Sink *Sink

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Trail is the process-scoped append-only audit store. It is safe for
// concurrent use; construct one instance and inject it into consumers.
type Trail struct {
	mu      sync.Mutex
	entries []Entry
	seq     uint64
	max     int
	sink    *Sink
	now     func() time.Time
}

// NewTrail creates an empty audit trail.
func NewTrail(opts Options) *Trail {
	max := opts.MaxEntries
	if max == 0 {
		max = DefaultMaxEntries
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Trail{
		max:  max,
		sink: opts.Sink,
		now:  now,
	}
}

// Log records an action. Details pass through redaction before storage.
// Log never fails: sink errors are absorbed and the stored entry is
// returned regardless.
func (t *Trail) Log(action Action, details map[string]any, success bool, errorMessage string) Entry {
	return t.log(action, "", "", details, success, errorMessage)
}

// LogAs records an action attributed to an actor and machine.
func (t *Trail) LogAs(action Action, actor, machine string, details map[string]any, success bool, errorMessage string) Entry {
	return t.log(action, actor, machine, details, success, errorMessage)
}

func (t *Trail) log(action Action, actor, machine string, details map[string]any, success bool, errorMessage string) Entry {
	t.mu.Lock()
	t.seq++
	ts := t.now()
	entry := Entry{
		ID:           t.nextIDLocked(ts),
		Timestamp:    ts,
		Action:       action,
		Severity:     SeverityFor(action),
		Actor:        actor,
		Machine:      machine,
		Success:      success,
		Details:      Sanitize(details),
		ErrorMessage: errorMessage,
	}
	t.entries = append(t.entries, entry)
	if t.max > 0 && len(t.entries) > t.max {
		drop := len(t.entries) - t.max
		t.entries = append(t.entries[:0:0], t.entries[drop:]...)
	}
	sink := t.sink
	t.mu.Unlock()

	if sink != nil {
		// Best effort: a persistence failure must not abort the caller.
		_ = sink.Write(entry)
	}
	return entry.clone()
}

// nextIDLocked composes the entry ID from the fixed prefix, a nanosecond
// timestamp, the mutex-guarded sequence number, and a random suffix. The
// sequence alone rules out collisions within the process; the suffix keeps
// IDs distinct across restarts within the same tick.
func (t *Trail) nextIDLocked(ts time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%06d-%s", idPrefix, ts.UnixNano(), t.seq, suffix)
}

// Filter selects entries. Zero-valued fields match everything.
type Filter struct {
	Action   Action
	Severity Severity
	// Success filters by outcome when non-nil.
	Success *bool
	// From/Until bound the time range inclusively when non-zero.
	From  time.Time
	Until time.Time
}

func (f Filter) matches(e Entry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if f.Success != nil && e.Success != *f.Success {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// Entries returns copies of all matching entries in insertion order,
// most recent last.
func (t *Trail) Entries(filter Filter) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Entry
	for _, e := range t.entries {
		if filter.matches(e) {
			out = append(out, e.clone())
		}
	}
	return out
}

// Len returns the number of stored entries.
func (t *Trail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Clear resets the store. Intended for test isolation and controlled
// operational reset, not ordinary operation.
func (t *Trail) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// Stats summarizes the trail at call time.
type Stats struct {
	Total      int              `json:"total"`
	ByAction   map[Action]int   `json:"by_action"`
	BySeverity map[Severity]int `json:"by_severity"`
	// SuccessRate is 100×successes/total, 0 when the trail is empty.
	SuccessRate float64 `json:"success_rate"`
	// RecentFailures lists failed entries newest first, capped at 10.
	RecentFailures []Entry `json:"recent_failures"`
}

// Stats computes a consistent snapshot of trail statistics.
func (t *Trail) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := Stats{
		Total:      len(t.entries),
		ByAction:   make(map[Action]int),
		BySeverity: make(map[Severity]int),
	}

	successes := 0
	for _, e := range t.entries {
		stats.ByAction[e.Action]++
		stats.BySeverity[e.Severity]++
		if e.Success {
			successes++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = 100 * float64(successes) / float64(stats.Total)
	}

	for i := len(t.entries) - 1; i >= 0 && len(stats.RecentFailures) < recentFailureCap; i-- {
		if !t.entries[i].Success {
			stats.RecentFailures = append(stats.RecentFailures, t.entries[i].clone())
		}
	}
	return stats
}
