package workout

import (
	"errors"
	"testing"
	"time"

	"backend-mapty/internal/shared/geo"
)

func TestStoreAppendFindAll(t *testing.T) {
	f := testFactory(time.Now())
	a, _ := f.NewRunning(geo.Point{Lat: 1, Lng: 1}, 5, 25, 170)
	b, _ := f.NewCycling(geo.Point{Lat: 2, Lng: 2}, 20, 60, 100)

	s := NewStore()
	if err := s.Append(a); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if err := s.Append(b); err != nil {
		t.Fatalf("append b: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 records")
	}

	got, ok := s.FindByID(b.ID())
	if !ok || got.ID() != b.ID() {
		t.Fatalf("find by id failed")
	}
	if _, ok := s.FindByID("missing"); ok {
		t.Fatalf("expected missing record")
	}

	var ids []string
	for r := range s.All() {
		ids = append(ids, r.ID())
	}
	if len(ids) != 2 || ids[0] != a.ID() || ids[1] != b.ID() {
		t.Fatalf("unexpected order: %v", ids)
	}

	// the sequence is restartable
	count := 0
	for range s.All() {
		count++
	}
	if count != 2 {
		t.Fatalf("expected restartable sequence")
	}
}

func TestStoreAllStopsEarly(t *testing.T) {
	f := testFactory(time.Now())
	s := NewStore()
	for i := 0; i < 3; i++ {
		r, _ := f.NewRunning(geo.Point{}, 1, 1, 1)
		_ = s.Append(r)
	}
	seen := 0
	for range s.All() {
		seen++
		break
	}
	if seen != 1 {
		t.Fatalf("expected early stop")
	}
}

func TestStoreDuplicateID(t *testing.T) {
	f := Factory{Clock: testFactory(time.Now()).Clock, NewID: func() string { return "same" }}
	a, _ := f.NewRunning(geo.Point{}, 1, 1, 1)
	b, _ := f.NewRunning(geo.Point{}, 2, 2, 2)

	s := NewStore()
	_ = s.Append(a)
	err := s.Append(b)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	var dup *DuplicateIDError
	if !errors.As(err, &dup) || dup.ID != "same" {
		t.Fatalf("expected typed duplicate error")
	}
	if s.Len() != 1 {
		t.Fatalf("store should be unchanged")
	}
}

func TestStoreRecordInteraction(t *testing.T) {
	f := testFactory(time.Now())
	a, _ := f.NewRunning(geo.Point{}, 1, 1, 1)
	b, _ := f.NewRunning(geo.Point{}, 1, 1, 1)
	s := NewStore()
	_ = s.Append(a)
	_ = s.Append(b)

	updated, ok := s.RecordInteraction(b.ID())
	if !ok || updated.InteractionCount() != 1 {
		t.Fatalf("expected count 1")
	}
	if b.InteractionCount() != 0 {
		t.Fatalf("caller copy must not change")
	}
	first, _ := s.FindByID(a.ID())
	if first.InteractionCount() != 0 {
		t.Fatalf("other records must not change")
	}
	if _, ok := s.RecordInteraction("missing"); ok {
		t.Fatalf("expected missing record")
	}
}
