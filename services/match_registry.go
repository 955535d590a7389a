package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"goon-fighter/models"

	"github.com/google/uuid"
)

// MatchRegistry owns the matchmaking queue and every live match. A single
// mutex covers both, so popping a queue entry and pairing it is atomic.
type MatchRegistry struct {
	mu      sync.Mutex
	queue   []models.QueueEntry // FIFO by EnqueuedAt
	matches map[string]*matchSlot
	// active maps a player to its one unresolved match (open, paired or solo).
	active map[models.Principal]string

	now   func() time.Time
	newID func() string
}

type matchSlot struct {
	match      models.Match
	resolvedAt time.Time
}

func NewMatchRegistry() *MatchRegistry {
	return &MatchRegistry{
		matches: make(map[string]*matchSlot),
		active:  make(map[models.Principal]string),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// FindMatch pairs caller with the oldest waiting player, or queues caller and
// returns (nil, nil). With startSolo it returns a paired solo match; a player
// holds at most one unresolved solo match, so asking again returns it.
func (r *MatchRegistry) FindMatch(caller models.Principal, startSolo bool) (*models.Match, error) {
	if caller.IsAnonymous() {
		return nil, ErrUnauthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.active[caller]; ok {
		slot := r.matches[id]
		if slot.match.Status == models.MatchOpen {
			return nil, ErrAlreadyQueued
		}
		if slot.match.IsSolo() != startSolo {
			return nil, fmt.Errorf("%w: finish match %s before starting another", ErrInvalidState, id)
		}
		// the queued player discovers the pairing made by its opponent
		m := slot.match
		return &m, nil
	}

	now := r.now()

	if startSolo {
		m := models.Match{
			ID:        r.newID(),
			CreatedBy: caller,
			Player1:   caller,
			Player2:   caller,
			Status:    models.MatchPaired,
			Mode:      models.ModeSolo,
			CreatedAt: now,
		}
		r.matches[m.ID] = &matchSlot{match: m}
		r.active[caller] = m.ID
		log.Printf("🥊 [MATCHMAKING] Solo match %s created for %s", m.ID, caller)
		return &m, nil
	}

	for i, entry := range r.queue {
		if entry.Player == caller {
			continue
		}
		r.queue = append(r.queue[:i:i], r.queue[i+1:]...)

		slot := r.matches[entry.MatchID]
		slot.match.Player2 = caller
		slot.match.Status = models.MatchPaired
		r.active[caller] = slot.match.ID

		log.Printf("🥊 [MATCHMAKING] Paired %s with %s in match %s (waited %s)",
			caller, entry.Player, slot.match.ID, now.Sub(entry.EnqueuedAt).Round(time.Millisecond))
		m := slot.match
		return &m, nil
	}

	m := models.Match{
		ID:        r.newID(),
		CreatedBy: caller,
		Player1:   caller,
		Status:    models.MatchOpen,
		Mode:      models.ModeQueue,
		CreatedAt: now,
	}
	r.matches[m.ID] = &matchSlot{match: m}
	r.queue = append(r.queue, models.QueueEntry{Player: caller, MatchID: m.ID, EnqueuedAt: now})
	r.active[caller] = m.ID
	log.Printf("⏳ [MATCHMAKING] %s queued (queue length %d)", caller, len(r.queue))
	return nil, nil
}

// CurrentMatch returns the caller's unresolved match, if any.
// queued is true while the caller still waits for an opponent.
func (r *MatchRegistry) CurrentMatch(caller models.Principal) (m *models.Match, queued bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.active[caller]
	if !ok {
		return nil, false
	}
	slot := r.matches[id]
	if slot.match.Status == models.MatchOpen {
		return nil, true
	}
	cp := slot.match
	return &cp, false
}

// LeaveQueue drops the caller's queue entry and its open match.
func (r *MatchRegistry) LeaveQueue(caller models.Principal) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.queue {
		if entry.Player == caller {
			r.dropEntryLocked(i)
			log.Printf("🚪 [MATCHMAKING] %s left the queue", caller)
			return true
		}
	}
	return false
}

// Get returns a copy of the match.
func (r *MatchRegistry) Get(id string) (models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.matches[id]
	if !ok {
		return models.Match{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return slot.match, nil
}

// Claim moves a paired match to resolving so exactly one caller may settle
// it. authorize runs under the registry lock before the status check.
// The claim must be followed by Complete or Release.
func (r *MatchRegistry) Claim(id string, authorize func(models.Match) error) (models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.matches[id]
	if !ok {
		return models.Match{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if authorize != nil {
		if err := authorize(slot.match); err != nil {
			return models.Match{}, err
		}
	}

	switch slot.match.Status {
	case models.MatchOpen:
		return models.Match{}, ErrNotPaired
	case models.MatchResolving, models.MatchResolved:
		return models.Match{}, ErrAlreadyResolved
	}

	slot.match.Status = models.MatchResolving
	return slot.match, nil
}

// Complete finalizes a claimed match. The match stays as a tombstone so late
// callers observe ErrAlreadyResolved until PruneResolved drops it.
func (r *MatchRegistry) Complete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.matches[id]
	if !ok || slot.match.Status != models.MatchResolving {
		return
	}
	slot.match.Status = models.MatchResolved
	slot.resolvedAt = r.now()
	for _, p := range []models.Principal{slot.match.Player1, slot.match.Player2} {
		if r.active[p] == id {
			delete(r.active, p)
		}
	}
}

// Release hands a claimed match back to paired after a failed settlement.
func (r *MatchRegistry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot, ok := r.matches[id]; ok && slot.match.Status == models.MatchResolving {
		slot.match.Status = models.MatchPaired
	}
}

// EvictStale removes queue entries older than ttl together with their open
// matches and returns how many were dropped.
func (r *MatchRegistry) EvictStale(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-ttl)
	evicted := 0
	for i := 0; i < len(r.queue); {
		if r.queue[i].EnqueuedAt.Before(cutoff) {
			log.Printf("🧹 [MATCHMAKING] Evicting stale queue entry for %s", r.queue[i].Player)
			r.dropEntryLocked(i)
			evicted++
			continue
		}
		i++
	}
	return evicted
}

// PruneResolved forgets resolved matches older than retention.
func (r *MatchRegistry) PruneResolved(retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-retention)
	pruned := 0
	for id, slot := range r.matches {
		if slot.match.Status == models.MatchResolved && slot.resolvedAt.Before(cutoff) {
			delete(r.matches, id)
			pruned++
		}
	}
	return pruned
}

// QueueLength reports how many players are waiting.
func (r *MatchRegistry) QueueLength() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *MatchRegistry) dropEntryLocked(i int) {
	entry := r.queue[i]
	r.queue = append(r.queue[:i:i], r.queue[i+1:]...)
	delete(r.matches, entry.MatchID)
	if r.active[entry.Player] == entry.MatchID {
		delete(r.active, entry.Player)
	}
}
