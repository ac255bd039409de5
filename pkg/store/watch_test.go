package store

import (
	"context"
	"testing"
	"time"

	"tableflip.dev/planner/pkg/model"
)

func TestDiskvWatchEmitsKindChanges(t *testing.T) {
	s, err := LoadDiskv(t.TempDir())
	if err != nil {
		t.Fatalf("load persistence: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow watcher goroutine to subscribe to directories before storing.
	time.Sleep(50 * time.Millisecond)

	err = s.Atomically(ctx, "u1", func(r Repository) error {
		_, err := r.Labels().Save(ctx, &model.Label{Meta: model.Meta{ID: "l1", OwnerID: "u1", Order: 1}, Name: "home"})
		return err
	})
	if err != nil {
		t.Fatalf("store label: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Type == EventInvalidated {
				return
			}
			if evt.Type == EventKindChanged {
				if evt.Kind != KindLabel {
					t.Fatalf("expected kind %q, got %q", KindLabel, evt.Kind)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for change event")
		}
	}
}

func TestKeyTransformRoundTrip(t *testing.T) {
	key := toKey(KindTask, "6f1c-4b2a-9e7d")
	pk := keyToPathTransform(key)
	if pk.Path[0] != KindTask || len(pk.Path[1]) != 2 {
		t.Fatalf("unexpected path %v", pk.Path)
	}
	if got := pathToKeyTransform(pk); got != key {
		t.Fatalf("round trip: got %q, want %q", got, key)
	}
}
