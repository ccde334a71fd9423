package api

import (
	"fmt"
	"testing"
)

func TestTranslationStoreEvictsOldest(t *testing.T) {
	t.Parallel()

	s := NewTranslationStore(2)
	for i := range 3 {
		s.Put(Translation{ID: fmt.Sprintf("tr_%d", i)})
	}
	if s.Len() != 2 {
		t.Fatalf("Len: got %d want 2", s.Len())
	}
	if _, ok := s.Get("tr_0"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	for _, id := range []string{"tr_1", "tr_2"} {
		if _, ok := s.Get(id); !ok {
			t.Fatalf("expected %s to be kept", id)
		}
	}
}

func TestTranslationStoreDelete(t *testing.T) {
	t.Parallel()

	s := NewTranslationStore(2)
	s.Put(Translation{ID: "a"})
	s.Put(Translation{ID: "b"})
	if !s.Delete("a") {
		t.Fatal("Delete(a) returned false")
	}
	if s.Delete("a") {
		t.Fatal("second Delete(a) returned true")
	}
	s.Put(Translation{ID: "c"})
	if _, ok := s.Get("b"); !ok {
		t.Fatal("b evicted after a deleted slot was refilled")
	}
}

func TestTranslationStoreOverwrite(t *testing.T) {
	t.Parallel()

	s := NewTranslationStore(0)
	s.Put(Translation{ID: "a", Output: "one"})
	s.Put(Translation{ID: "a", Output: "two"})
	got, ok := s.Get("a")
	if !ok || got.Output != "two" || s.Len() != 1 {
		t.Fatalf("unexpected store state: %+v ok=%v len=%d", got, ok, s.Len())
	}
}
