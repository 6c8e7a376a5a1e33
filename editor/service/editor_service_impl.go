package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/codeshare/server/editor/session"
)

// editorService is the store-backed implementation of EditorService.
type editorService struct {
	store   *session.Store
	counter session.ParticipantCounter
	reaper  *session.Reaper

	mu        sync.RWMutex
	shareBase string
}

// NewEditorService creates an editor service. counter supplies live
// participant counts (the websocket hub in production); reaper receives
// newly created sessions so that never-joined ones are reclaimed after the
// grace period. shareBase is the URL prefix for share links.
func NewEditorService(store *session.Store, counter session.ParticipantCounter, reaper *session.Reaper, shareBase string) EditorService {
	return &editorService{
		store:     store,
		counter:   counter,
		reaper:    reaper,
		shareBase: shareBase,
	}
}

// SetShareBaseURL replaces the share-link base, e.g. once a public tunnel
// URL becomes known after startup.
func SetShareBaseURL(s EditorService, base string) {
	if es, ok := s.(*editorService); ok {
		es.mu.Lock()
		es.shareBase = base
		es.mu.Unlock()
	}
}

func (s *editorService) CreateSession(ctx context.Context) (*CreateSessionResult, error) {
	sess := s.store.Create()

	// Arm cleanup right away: a session nobody ever joins is reclaimed
	// after the same grace period as an abandoned one.
	if s.reaper != nil {
		s.reaper.Schedule(sess.ID)
	}

	s.mu.RLock()
	base := s.shareBase
	s.mu.RUnlock()

	return &CreateSessionResult{
		ID:        sess.ID,
		ShareLink: fmt.Sprintf("%s/?session=%s", base, sess.ID),
		CreatedAt: sess.CreatedAt,
	}, nil
}

func (s *editorService) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionInfo{
		ID:               sess.ID,
		Code:             sess.Code,
		Language:         sess.Language,
		ParticipantCount: s.counter.ParticipantCount(sess.ID),
		CreatedAt:        sess.CreatedAt,
	}, nil
}

func (s *editorService) ListSessions(ctx context.Context) ([]*SessionSummary, error) {
	summaries := s.store.List()

	result := make([]*SessionSummary, 0, len(summaries))
	for _, sum := range summaries {
		result = append(result, &SessionSummary{
			ID:               sum.ID,
			Language:         sum.Language,
			ParticipantCount: s.counter.ParticipantCount(sum.ID),
			CreatedAt:        sum.CreatedAt,
		})
	}

	return result, nil
}

func (s *editorService) DeleteSession(ctx context.Context, sessionID string) error {
	return s.store.Delete(sessionID)
}
