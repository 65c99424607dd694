package settings

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

type mockRepo struct {
	rows    map[string]*Settings
	getErr  error
	saveErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{rows: make(map[string]*Settings)}
}

func (m *mockRepo) Get(_ context.Context, userID string) (*Settings, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	s, ok := m.rows[userID]
	if !ok {
		return nil, false, nil
	}
	cp := *s
	return &cp, true, nil
}

func (m *mockRepo) Upsert(_ context.Context, s *Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *s
	m.rows[s.UserID] = &cp
	return nil
}

type recordingObserver struct {
	enabled  []string
	disabled []string
}

func (o *recordingObserver) OnNotificationsEnabled(_ context.Context, userID string) {
	o.enabled = append(o.enabled, userID)
}

func (o *recordingObserver) OnNotificationsDisabled(_ context.Context, userID string) {
	o.disabled = append(o.disabled, userID)
}

func TestGet_DefaultsToEnabled(t *testing.T) {
	svc := NewService(newMockRepo(), testLogger())

	s, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !s.NotificationsEnabled {
		t.Error("users without a settings row must default to notifications on")
	}
	if s.UserID != "u1" {
		t.Errorf("expected user id u1, got %q", s.UserID)
	}
}

func TestSetNotificationsEnabled_PersistsAndNotifies(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, testLogger())
	obs := &recordingObserver{}
	svc.AddObserver(obs)
	ctx := context.Background()

	if _, err := svc.SetNotificationsEnabled(ctx, "u1", false); err != nil {
		t.Fatalf("set: %v", err)
	}
	if svc.NotificationsEnabled(ctx, "u1") {
		t.Error("expected toggle persisted as off")
	}
	if len(obs.disabled) != 1 || obs.disabled[0] != "u1" {
		t.Errorf("expected disable notification for u1, got %v", obs.disabled)
	}

	if _, err := svc.SetNotificationsEnabled(ctx, "u1", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !svc.NotificationsEnabled(ctx, "u1") {
		t.Error("expected toggle persisted as on")
	}
	if len(obs.enabled) != 1 || obs.enabled[0] != "u1" {
		t.Errorf("expected enable notification for u1, got %v", obs.enabled)
	}
}

func TestSetNotificationsEnabled_SaveFailureSkipsObservers(t *testing.T) {
	repo := newMockRepo()
	repo.saveErr = errors.New("connection refused")
	svc := NewService(repo, testLogger())
	obs := &recordingObserver{}
	svc.AddObserver(obs)

	if _, err := svc.SetNotificationsEnabled(context.Background(), "u1", false); err == nil {
		t.Fatal("expected persistence error")
	}
	if len(obs.disabled) != 0 {
		t.Error("observers must not fire when the write failed")
	}
}

func TestNotificationsEnabled_ReadFailureFallsBackToDefault(t *testing.T) {
	repo := newMockRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewService(repo, testLogger())

	if !svc.NotificationsEnabled(context.Background(), "u1") {
		t.Error("read failure must fall back to the enabled default")
	}
}
