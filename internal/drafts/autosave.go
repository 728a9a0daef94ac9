package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/telemetry"
)

const (
	defaultDelay     = 2 * time.Second
	defaultFreshness = 24 * time.Hour
	writeTimeout     = 5 * time.Second
)

// Autosaver debounces draft writes per owner and key. Only the latest
// payload scheduled within the delay reaches the store.
type Autosaver struct {
	store     Store
	delay     time.Duration
	freshness time.Duration
	now       func() time.Time

	// writeMu orders store writes against Discard; take it before mu.
	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[string]*pendingSave
	discards map[string]uint64
	closed   bool
	wg       sync.WaitGroup
}

type pendingSave struct {
	timer *time.Timer
	draft Draft
}

// Options configures an Autosaver. Zero values pick the defaults.
type Options struct {
	Delay     time.Duration
	Freshness time.Duration
	Now       func() time.Time
}

func NewAutosaver(store Store, opts Options) *Autosaver {
	a := &Autosaver{
		store:     store,
		delay:     opts.Delay,
		freshness: opts.Freshness,
		now:       opts.Now,
		pending:   make(map[string]*pendingSave),
		discards:  make(map[string]uint64),
	}
	if a.delay <= 0 {
		a.delay = defaultDelay
	}
	if a.freshness <= 0 {
		a.freshness = defaultFreshness
	}
	if a.now == nil {
		a.now = func() time.Time { return time.Now().UTC() }
	}
	return a
}

// Delay is the debounce interval.
func (a *Autosaver) Delay() time.Duration { return a.delay }

// Schedule queues payload for key, superseding any unsaved payload for the
// same key. Guests may autosave under their guest identity.
func (a *Autosaver) Schedule(caller auth.Caller, key string, payload []byte) error {
	d, err := newDraft(caller, key, payload)
	if err != nil {
		return err
	}
	id := storeKey(d.OwnerID, d.Key)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	a.cancelLocked(id)

	p := &pendingSave{draft: d}
	a.wg.Add(1)
	p.timer = time.AfterFunc(a.delay, func() {
		defer a.wg.Done()
		a.fire(id, p)
	})
	a.pending[id] = p
	return nil
}

// Pending reports whether an unsaved payload is queued for key.
func (a *Autosaver) Pending(caller auth.Caller, key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[storeKey(caller.UserID, strings.TrimSpace(key))]
	return ok
}

// Recover returns the stored draft when it was saved within the freshness
// window. Stale drafts are deleted and reported as not found.
func (a *Autosaver) Recover(ctx context.Context, caller auth.Caller, key string) (Draft, error) {
	key = strings.TrimSpace(key)
	if caller.UserID == "" || key == "" {
		return Draft{}, ErrInvalidInput
	}
	d, err := a.store.Get(ctx, caller.UserID, key)
	if err != nil {
		return Draft{}, err
	}
	if age := a.now().Sub(d.SavedAt); age > a.freshness {
		if err := a.store.Delete(ctx, caller.UserID, key); err != nil {
			return Draft{}, err
		}
		telemetry.Info("drafts.discarded_stale", map[string]any{
			"user_id": caller.UserID,
			"key":     key,
			"age_ms":  age.Milliseconds(),
		})
		return Draft{}, ErrNotFound
	}
	return d, nil
}

// Discard drops both the queued and the stored copy of key. A write already
// in flight either lands before the delete or is skipped.
func (a *Autosaver) Discard(ctx context.Context, caller auth.Caller, key string) error {
	key = strings.TrimSpace(key)
	if caller.UserID == "" || key == "" {
		return ErrInvalidInput
	}
	id := storeKey(caller.UserID, key)

	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.mu.Lock()
	a.cancelLocked(id)
	a.discards[id]++
	a.mu.Unlock()
	return a.store.Delete(ctx, caller.UserID, key)
}

// Flush writes every queued payload now.
func (a *Autosaver) Flush(ctx context.Context) error {
	type dueSave struct {
		id    string
		gen   uint64
		draft Draft
	}
	a.mu.Lock()
	var due []dueSave
	for id, p := range a.pending {
		// A timer that already fired writes its own payload.
		if p.timer.Stop() {
			a.wg.Done()
			due = append(due, dueSave{id: id, gen: a.discards[id], draft: p.draft})
			delete(a.pending, id)
		}
	}
	a.mu.Unlock()

	var firstErr error
	for _, d := range due {
		if err := a.writeIfCurrent(ctx, d.id, d.gen, d.draft); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close flushes queued payloads and waits for in-flight writes.
func (a *Autosaver) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	err := a.Flush(ctx)
	a.wg.Wait()
	return err
}

// cancelLocked stops the queued save for id. A timer that already fired
// sees it was replaced and skips its write.
func (a *Autosaver) cancelLocked(id string) {
	p, ok := a.pending[id]
	if !ok {
		return
	}
	if p.timer.Stop() {
		a.wg.Done()
	}
	delete(a.pending, id)
}

func (a *Autosaver) fire(id string, p *pendingSave) {
	a.mu.Lock()
	if a.pending[id] != p {
		a.mu.Unlock()
		return
	}
	delete(a.pending, id)
	gen := a.discards[id]
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := a.writeIfCurrent(ctx, id, gen, p.draft); err != nil {
		telemetry.Error("drafts.autosave_failed", map[string]any{
			"user_id": p.draft.OwnerID,
			"key":     p.draft.Key,
			"error":   err.Error(),
		})
	}
}

// writeIfCurrent stores d unless key id was discarded after gen was read.
func (a *Autosaver) writeIfCurrent(ctx context.Context, id string, gen uint64, d Draft) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.mu.Lock()
	discarded := a.discards[id] != gen
	a.mu.Unlock()
	if discarded {
		return nil
	}
	return a.write(ctx, d)
}

func (a *Autosaver) write(ctx context.Context, d Draft) error {
	d.SavedAt = a.now()
	return a.store.Put(ctx, d)
}

func newDraft(caller auth.Caller, key string, payload []byte) (Draft, error) {
	key = strings.TrimSpace(key)
	if caller.UserID == "" {
		return Draft{}, fmt.Errorf("%w: caller identity is required", ErrInvalidInput)
	}
	if key == "" || len(key) > maxKeyLength {
		return Draft{}, fmt.Errorf("%w: key must be 1-%d characters", ErrInvalidInput, maxKeyLength)
	}
	if !json.Valid(payload) {
		return Draft{}, fmt.Errorf("%w: payload must be JSON", ErrInvalidInput)
	}
	return Draft{
		OwnerID: caller.UserID,
		Key:     key,
		Payload: append([]byte(nil), payload...),
	}, nil
}
