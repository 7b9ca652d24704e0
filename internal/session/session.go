package session

import (
	"context"
	"errors"
	"sync"

	"github.com/adamavenir/threadchat/internal/types"
	"github.com/rs/zerolog/log"
)

// ErrClosed is returned by Update and Flush after Close.
var ErrClosed = errors.New("session closed")

// Saver persists a whole store.
type Saver interface {
	Save(store types.ChatStore) error
}

// Source is a Saver that can notice when another process rewrote the stored
// document. Refresh reports whether it did and returns the store as it is now
// on disk.
type Source interface {
	Saver
	Refresh() (types.ChatStore, bool)
}

// Session holds the current store snapshot and keeps durable storage in step
// with it. Update swaps the snapshot and returns before the write finishes;
// a single writer goroutine persists the newest snapshot, skipping any that
// were superseded while it was busy, so an older snapshot is never written
// after a newer one.
type Session struct {
	saver Saver

	mu     sync.Mutex // serializes Update
	store  types.ChatStore
	gen    uint64
	closed bool

	writeMu  sync.Mutex
	pending  *snapshot
	written  uint64
	lastErr  error
	progress chan struct{}

	wake   chan struct{}
	stopCh chan struct{}
	done   chan struct{}
}

type snapshot struct {
	store types.ChatStore
	gen   uint64
}

// New starts a session over initial, persisting through saver.
func New(saver Saver, initial types.ChatStore) *Session {
	s := &Session{
		saver:    saver,
		store:    initial,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

// Snapshot returns the current store. The value is immutable; callers must not
// modify its maps.
func (s *Session) Snapshot() types.ChatStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// Update applies fn to the current snapshot, installs the result and schedules
// it to be saved. Mutations are applied one at a time in call order.
func (s *Session) Update(fn func(types.ChatStore) types.ChatStore) (types.ChatStore, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ChatStore{}, ErrClosed
	}
	if source, ok := s.saver.(Source); ok {
		s.awaitWrites(s.gen)
		if current, changed := source.Refresh(); changed {
			s.store = current
		}
	}
	next := fn(s.store)
	s.store = next
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.schedule(snapshot{store: next, gen: gen})
	return next, nil
}

// Generation is the number of updates applied so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// awaitWrites blocks until generation gen has been written or the writer has
// stopped. Callers hold s.mu.
func (s *Session) awaitWrites(gen uint64) {
	for {
		s.writeMu.Lock()
		if s.written >= gen {
			s.writeMu.Unlock()
			return
		}
		progress := s.progress
		s.writeMu.Unlock()

		select {
		case <-progress:
		case <-s.done:
			return
		}
	}
}

func (s *Session) schedule(snap snapshot) {
	s.writeMu.Lock()
	if s.pending == nil || s.pending.gen < snap.gen {
		s.pending = &snap
	}
	s.writeMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) writeLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.writePending()
		case <-s.stopCh:
			s.writePending()
			return
		}
	}
}

func (s *Session) writePending() {
	s.writeMu.Lock()
	snap := s.pending
	s.pending = nil
	if snap == nil || snap.gen <= s.written {
		s.writeMu.Unlock()
		return
	}
	s.writeMu.Unlock()

	err := s.saver.Save(snap.store)
	if err != nil {
		log.Error().Err(err).Uint64("generation", snap.gen).Msg("failed to save chat store")
	} else {
		log.Debug().Uint64("generation", snap.gen).Msg("saved chat store")
	}

	s.writeMu.Lock()
	if snap.gen > s.written {
		s.written = snap.gen
		s.lastErr = err
	}
	close(s.progress)
	s.progress = make(chan struct{})
	s.writeMu.Unlock()
}

// Flush waits until every update made before the call has been written and
// returns the error of the most recent write, if it failed.
func (s *Session) Flush(ctx context.Context) error {
	target := s.Generation()
	for {
		s.writeMu.Lock()
		if s.written >= target {
			err := s.lastErr
			s.writeMu.Unlock()
			return err
		}
		progress := s.progress
		s.writeMu.Unlock()

		select {
		case <-progress:
		case <-s.done:
			s.writeMu.Lock()
			done := s.written >= target
			err := s.lastErr
			s.writeMu.Unlock()
			if done {
				return err
			}
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close rejects further updates, flushes pending writes and stops the writer.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.Flush(ctx)
	close(s.stopCh)
	select {
	case <-s.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}
