package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/db"
	"github.com/adamavenir/threadchat/internal/types"
)

type recordingSaver struct {
	mu     sync.Mutex
	saves  []int
	gate   chan struct{}
	failOn map[int]error
}

func (r *recordingSaver) Save(store types.ChatStore) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(store.Messages)
	r.saves = append(r.saves, n)
	return r.failOn[n]
}

func (r *recordingSaver) counts() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.saves...)
}

func addN(n int) func(types.ChatStore) types.ChatStore {
	return func(store types.ChatStore) types.ChatStore {
		return core.AddMessage(store, types.Message{
			ID:        "m" + string(rune('a'+n)),
			CreatedAt: int64(n),
			Location:  types.FileLocation("a.md"),
		})
	}
}

func flushCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestUpdateInstallsSnapshotImmediately(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{})}
	s := New(saver, types.NewChatStore())

	next, err := s.Update(addN(0))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(next.Messages) != 1 || len(s.Snapshot().Messages) != 1 {
		t.Fatalf("expected snapshot before the write completes")
	}

	close(saver.gate)
	if err := s.Close(flushCtx(t)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := saver.counts(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected one save of one message, got %v", got)
	}
}

func TestWritesNeverGoBackwards(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{})}
	s := New(saver, types.NewChatStore())

	for i := 0; i < 10; i++ {
		if _, err := s.Update(addN(i)); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	close(saver.gate)
	if err := s.Flush(flushCtx(t)); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got := saver.counts()
	if len(got) == 0 || got[len(got)-1] != 10 {
		t.Fatalf("expected final save of 10 messages, got %v", got)
	}
	// The writer was blocked while updates piled up, so they coalesce.
	if len(got) > 2 {
		t.Fatalf("expected pending saves to coalesce, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("older snapshot written after newer one: %v", got)
		}
	}
	_ = s.Close(flushCtx(t))
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	saver := &recordingSaver{}
	s := New(saver, types.NewChatStore())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = s.Update(addN(n))
		}(i)
	}
	wg.Wait()

	if err := s.Close(flushCtx(t)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := len(s.Snapshot().Messages); got != 20 {
		t.Fatalf("expected 20 messages, got %d", got)
	}
	if s.Generation() != 20 {
		t.Fatalf("expected generation 20, got %d", s.Generation())
	}
	counts := saver.counts()
	if counts[len(counts)-1] != 20 {
		t.Fatalf("expected last save to hold every message, got %v", counts)
	}
}

func TestFlushReportsWriteError(t *testing.T) {
	boom := errors.New("disk full")
	saver := &recordingSaver{failOn: map[int]error{1: boom}}
	s := New(saver, types.NewChatStore())
	defer s.Close(flushCtx(t))

	if _, err := s.Update(addN(0)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Flush(flushCtx(t)); !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}

	// A later successful write clears the error.
	if _, err := s.Update(addN(1)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Flush(flushCtx(t)); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

func TestFlushHonoursContext(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{})}
	s := New(saver, types.NewChatStore())

	if _, err := s.Update(addN(0)); err != nil {
		t.Fatalf("update: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(saver.gate)
	if err := s.Close(flushCtx(t)); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestUpdateAfterClose(t *testing.T) {
	s := New(&recordingSaver{}, types.NewChatStore())
	if err := s.Close(flushCtx(t)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Update(addN(0)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := s.Close(flushCtx(t)); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

type refreshingSaver struct {
	recordingSaver
	external *types.ChatStore
}

func (r *refreshingSaver) Refresh() (types.ChatStore, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.external == nil {
		return types.ChatStore{}, false
	}
	store := *r.external
	r.external = nil
	return store, true
}

func TestUpdateAppliesToRefreshedStore(t *testing.T) {
	saver := &refreshingSaver{}
	sess := New(saver, addN(1)(types.NewChatStore()))
	defer sess.Close(flushCtx(t))

	external := addN(2)(addN(1)(types.NewChatStore()))
	saver.mu.Lock()
	saver.external = &external
	saver.mu.Unlock()

	next, err := sess.Update(addN(3))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(next.Messages) != 3 {
		t.Fatalf("expected the other writer's message to survive, got %d messages", len(next.Messages))
	}
	if err := sess.Flush(flushCtx(t)); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := saver.counts(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("unexpected saves: %v", got)
	}
}

func TestUpdateKeepsMessagesSavedByAnotherProcess(t *testing.T) {
	vault, err := core.InitVault(t.TempDir())
	if err != nil {
		t.Fatalf("init vault: %v", err)
	}
	first := types.Message{ID: "m1", Content: "one", CreatedAt: 1, Location: types.FileLocation("old.md")}
	second := types.Message{ID: "m2", Content: "two", CreatedAt: 2, Location: types.FileLocation("other.md")}

	if err := db.NewStorage(vault, types.StoragePlugin).Save(core.AddMessage(types.NewChatStore(), first)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	storage := db.NewStorage(vault, types.StoragePlugin)
	initial, _ := storage.Load()
	sess := New(storage, initial)
	defer sess.Close(flushCtx(t))

	// A separate process posts while this session is idle.
	other := db.NewStorage(vault, types.StoragePlugin)
	theirs, _ := other.Load()
	if err := other.Save(core.AddMessage(theirs, second)); err != nil {
		t.Fatalf("other save: %v", err)
	}

	if _, err := sess.Update(func(store types.ChatStore) types.ChatStore {
		return core.MigrateLocation(store, types.FileLocation("old.md"), types.FileLocation("new.md"))
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := sess.Flush(flushCtx(t)); err != nil {
		t.Fatalf("flush: %v", err)
	}

	saved, err := db.ReadStoreFile(storage.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, ok := saved.Messages["m2"]; !ok {
		t.Fatalf("message saved by the other process was lost")
	}
	if got := saved.Messages["m1"].Location; got != types.FileLocation("new.md") {
		t.Fatalf("expected m1 at new.md, got %+v", got)
	}
}
