package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/codeshare/server/editor/session"
)

func zeroCounter() session.ParticipantCounter {
	return session.CounterFunc(func(string) int { return 0 })
}

func TestCreateSessionShareLink(t *testing.T) {
	store := session.NewStore()
	svc := NewEditorService(store, zeroCounter(), nil, "http://localhost:8080")

	result, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	want := "http://localhost:8080/?session=" + result.ID
	if result.ShareLink != want {
		t.Errorf("Expected share link %q, got %q", want, result.ShareLink)
	}
	if result.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	// The session is immediately joinable
	if _, err := store.Get(result.ID); err != nil {
		t.Errorf("Created session should be in the store: %v", err)
	}
}

func TestSetShareBaseURL(t *testing.T) {
	svc := NewEditorService(session.NewStore(), zeroCounter(), nil, "http://localhost:8080")

	SetShareBaseURL(svc, "https://example.ngrok.app")

	result, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if !strings.HasPrefix(result.ShareLink, "https://example.ngrok.app/?session=") {
		t.Errorf("Expected share link on the new base, got %q", result.ShareLink)
	}
}

func TestGetSessionIncludesParticipantCount(t *testing.T) {
	store := session.NewStore()
	counter := session.CounterFunc(func(id string) int { return 3 })
	svc := NewEditorService(store, counter, nil, "http://localhost:8080")

	sess := store.Create()
	store.SetCode(sess.ID, "x = 1")
	store.SetLanguage(sess.ID, "python")

	info, err := svc.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if info.Code != "x = 1" || info.Language != "python" {
		t.Errorf("Unexpected session info: %+v", info)
	}
	if info.ParticipantCount != 3 {
		t.Errorf("Expected participant count 3, got %d", info.ParticipantCount)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	svc := NewEditorService(session.NewStore(), zeroCounter(), nil, "http://localhost:8080")

	_, err := svc.GetSession(context.Background(), "nonexistent")
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestListSessionsOmitsCode(t *testing.T) {
	store := session.NewStore()
	counts := map[string]int{}
	counter := session.CounterFunc(func(id string) int { return counts[id] })
	svc := NewEditorService(store, counter, nil, "http://localhost:8080")

	first := store.Create()
	second := store.Create()
	counts[first.ID] = 2
	counts[second.ID] = 0

	summaries, err := svc.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(summaries))
	}

	for _, sum := range summaries {
		if sum.ID == first.ID && sum.ParticipantCount != 2 {
			t.Errorf("Expected participant count 2 for %s, got %d", first.ID, sum.ParticipantCount)
		}
		if sum.ID == second.ID && sum.ParticipantCount != 0 {
			t.Errorf("Expected participant count 0 for %s, got %d", second.ID, sum.ParticipantCount)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	store := session.NewStore()
	svc := NewEditorService(store, zeroCounter(), nil, "http://localhost:8080")

	sess := store.Create()
	if err := svc.DeleteSession(context.Background(), sess.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := store.Get(sess.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Expected session gone after delete, got %v", err)
	}

	if err := svc.DeleteSession(context.Background(), sess.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on repeat delete, got %v", err)
	}
}

func TestCreateSessionArmsCleanup(t *testing.T) {
	store := session.NewStore()
	reaper := session.NewReaper(store, 20*time.Millisecond, zeroCounter())
	svc := NewEditorService(store, zeroCounter(), reaper, "http://localhost:8080")

	result, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// A session nobody joins disappears after the grace period
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, err := store.Get(result.ID); errors.Is(err, session.ErrSessionNotFound) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Never-joined session should have been reclaimed")
}
