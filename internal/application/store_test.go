package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/directus-governance/internal/governance"
)

type recordingSubscriber struct {
	name  string
	calls *[]string
	keys  [][]governance.Key
	err   error
}

func (r *recordingSubscriber) StateChanged(ctx context.Context, keys []governance.Key, state governance.State) error {
	*r.calls = append(*r.calls, r.name)
	r.keys = append(r.keys, keys)
	return r.err
}

func TestStore_Mutate(t *testing.T) {
	t.Parallel()

	t.Run("failed mutation leaves state untouched", func(t *testing.T) {
		t.Parallel()
		store := NewStore(governance.State{Designations: []string{"CEO"}}, nil)
		var calls []string
		store.Subscribe(&recordingSubscriber{name: "a", calls: &calls})

		boom := errors.New("boom")
		err := store.Mutate(context.Background(), []governance.Key{governance.KeyDesignations}, func(s *governance.State) error {
			s.Designations = append(s.Designations, "CFO")
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected fn error, got %v", err)
		}
		if got := store.Snapshot().Designations; len(got) != 1 {
			t.Fatalf("state changed after failed mutation: %v", got)
		}
		if len(calls) != 0 {
			t.Fatalf("subscribers notified after failed mutation: %v", calls)
		}
	})

	t.Run("subscribers run in registration order", func(t *testing.T) {
		t.Parallel()
		store := NewStore(governance.State{}, nil)
		var calls []string
		first := &recordingSubscriber{name: "first", calls: &calls}
		store.Subscribe(first)
		store.Subscribe(&recordingSubscriber{name: "second", calls: &calls})
		store.Subscribe(nil)

		err := store.Mutate(context.Background(), []governance.Key{governance.KeyTasks}, func(s *governance.State) error {
			s.Tasks = append(s.Tasks, governance.Task{ID: "t1"})
			return nil
		})
		if err != nil {
			t.Fatalf("Mutate: %v", err)
		}
		if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
			t.Fatalf("unexpected call order %v", calls)
		}
		if len(first.keys) != 1 || first.keys[0][0] != governance.KeyTasks {
			t.Fatalf("unexpected keys %v", first.keys)
		}
	})

	t.Run("subscriber failure keeps the committed state", func(t *testing.T) {
		t.Parallel()
		store := NewStore(governance.State{}, nil)
		var calls []string
		diskFull := errors.New("disk full")
		store.Subscribe(&recordingSubscriber{name: "broken", calls: &calls, err: diskFull})
		store.Subscribe(&recordingSubscriber{name: "healthy", calls: &calls})

		err := store.Mutate(context.Background(), []governance.Key{governance.KeyTasks}, func(s *governance.State) error {
			s.Tasks = append(s.Tasks, governance.Task{ID: "t1"})
			return nil
		})
		if !errors.Is(err, ErrPersistence) || !errors.Is(err, diskFull) {
			t.Fatalf("expected wrapped persistence error, got %v", err)
		}
		if len(calls) != 2 {
			t.Fatalf("expected every subscriber to run, got %v", calls)
		}
		if got := store.Snapshot().Tasks; len(got) != 1 {
			t.Fatalf("expected committed task to remain, got %v", got)
		}
	})
}

func TestStore_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	store := NewStore(governance.State{Meetings: []governance.Meeting{{ID: "m1", Attendees: []string{"u1"}}}}, nil)
	snap := store.Snapshot()
	snap.Meetings[0].Attendees[0] = "changed"

	if got := store.Snapshot().Meetings[0].Attendees[0]; got != "u1" {
		t.Fatalf("snapshot aliased store state: %q", got)
	}

	var calls []string
	store.Subscribe(&recordingSubscriber{name: "a", calls: &calls})
	store.Replace(governance.State{Designations: []string{"CEO"}})
	if len(calls) != 0 {
		t.Fatalf("Replace notified subscribers")
	}
	if got := store.Snapshot(); len(got.Meetings) != 0 || len(got.Designations) != 1 {
		t.Fatalf("unexpected replaced state %+v", got)
	}
}
