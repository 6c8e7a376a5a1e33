package session

import (
	"errors"
	"sync"
	"testing"
)

func TestStoreCreateDefaults(t *testing.T) {
	store := NewStore()

	sess := store.Create()

	if len(sess.ID) != IDLength {
		t.Errorf("Expected ID length %d, got %d (%q)", IDLength, len(sess.ID), sess.ID)
	}
	if sess.Code != DefaultCode {
		t.Errorf("Expected default code template, got %q", sess.Code)
	}
	if sess.Language != DefaultLanguage {
		t.Errorf("Expected default language %q, got %q", DefaultLanguage, sess.Language)
	}
	if sess.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	// Get immediately after Create must return the same defaults
	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get after Create failed: %v", err)
	}
	if got.Code != DefaultCode || got.Language != DefaultLanguage {
		t.Error("Get after Create did not return the default document")
	}
}

func TestStoreIDUniqueness(t *testing.T) {
	store := NewStore()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		sess := store.Create()
		if seen[sess.ID] {
			t.Fatalf("Duplicate session ID generated: %s", sess.ID)
		}
		if len(sess.ID) != IDLength {
			t.Fatalf("Expected ID length %d, got %q", IDLength, sess.ID)
		}
		seen[sess.ID] = true
	}
}

func TestStoreGetNotFound(t *testing.T) {
	store := NewStore()

	_, err := store.Get("nonexistent")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreSetCode(t *testing.T) {
	store := NewStore()
	sess := store.Create()

	if err := store.SetCode(sess.ID, "x = 1"); err != nil {
		t.Fatalf("SetCode failed: %v", err)
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Code != "x = 1" {
		t.Errorf("Expected code %q, got %q", "x = 1", got.Code)
	}

	if err := store.SetCode("nonexistent", "y = 2"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound for unknown session, got %v", err)
	}
}

func TestStoreSetCodeLastWriteWins(t *testing.T) {
	store := NewStore()
	sess := store.Create()

	updates := []string{"a", "b", "c", "final"}
	for _, code := range updates {
		if err := store.SetCode(sess.ID, code); err != nil {
			t.Fatalf("SetCode failed: %v", err)
		}
	}

	got, _ := store.Get(sess.ID)
	if got.Code != "final" {
		t.Errorf("Expected last write %q, got %q", "final", got.Code)
	}
}

func TestStoreSetLanguage(t *testing.T) {
	store := NewStore()
	sess := store.Create()

	if err := store.SetLanguage(sess.ID, "python"); err != nil {
		t.Fatalf("SetLanguage failed: %v", err)
	}

	got, _ := store.Get(sess.ID)
	if got.Language != "python" {
		t.Errorf("Expected language %q, got %q", "python", got.Language)
	}

	if err := store.SetLanguage("nonexistent", "go"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound for unknown session, got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	store := NewStore()

	if got := store.List(); len(got) != 0 {
		t.Errorf("Expected empty list, got %d entries", len(got))
	}

	first := store.Create()
	second := store.Create()
	store.SetLanguage(second.ID, "go")

	summaries := store.List()
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(summaries))
	}

	byID := make(map[string]Summary)
	for _, sum := range summaries {
		byID[sum.ID] = sum
	}

	if byID[first.ID].Language != DefaultLanguage {
		t.Errorf("Expected language %q for first session, got %q", DefaultLanguage, byID[first.ID].Language)
	}
	if byID[second.ID].Language != "go" {
		t.Errorf("Expected language %q for second session, got %q", "go", byID[second.ID].Language)
	}
}

func TestStoreDelete(t *testing.T) {
	store := NewStore()
	sess := store.Create()

	if err := store.Delete(sess.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}

	if err := store.Delete(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestStoreCount(t *testing.T) {
	store := NewStore()

	if store.Count() != 0 {
		t.Errorf("Expected count 0, got %d", store.Count())
	}

	first := store.Create()
	store.Create()

	if store.Count() != 2 {
		t.Errorf("Expected count 2, got %d", store.Count())
	}

	store.Delete(first.ID)
	if store.Count() != 1 {
		t.Errorf("Expected count 1 after delete, got %d", store.Count())
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	sess := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Create()
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			store.SetCode(sess.ID, "concurrent")
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Get(sess.ID)
			store.List()
		}()
	}
	wg.Wait()

	if store.Count() != 51 {
		t.Errorf("Expected 51 sessions, got %d", store.Count())
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Code != "concurrent" {
		t.Errorf("Expected code %q, got %q", "concurrent", got.Code)
	}
}
