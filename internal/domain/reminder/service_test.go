package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"

	"github.com/healthhive/api/internal/platform/jobs"
	"github.com/healthhive/api/internal/platform/notify"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

// mockRepo is an in-memory Repository.
type mockRepo struct {
	mu         sync.Mutex
	rows       map[string]*Reminder
	failCreate error
}

func newMockRepo() *mockRepo {
	return &mockRepo{rows: make(map[string]*Reminder)}
}

func (m *mockRepo) Create(_ context.Context, r *Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	cp := *r
	m.rows[r.ReminderID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID string) ([]*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Reminder
	for _, r := range m.rows {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeDeferrer records enqueued and canceled tags, enforcing the scheduler's
// positive-delay rule.
type fakeDeferrer struct {
	mu       sync.Mutex
	payloads map[string][]byte
	canceled []string
}

func newFakeDeferrer() *fakeDeferrer {
	return &fakeDeferrer{payloads: make(map[string][]byte)}
}

func (f *fakeDeferrer) Enqueue(_ context.Context, tag string, payload []byte, delay time.Duration) error {
	if delay <= 0 {
		return jobs.ErrPastDue
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[tag] = payload
	return nil
}

func (f *fakeDeferrer) Cancel(_ context.Context, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.payloads, tag)
	f.canceled = append(f.canceled, tag)
	return nil
}

func (f *fakeDeferrer) pending(tag string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.payloads[tag]
	return ok
}

func (f *fakeDeferrer) pendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func (f *fakeDeferrer) canceledTags() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.canceled))
	copy(out, f.canceled)
	return out
}

// stubGate is a switchable SettingsGate.
type stubGate struct{ enabled bool }

func (g *stubGate) NotificationsEnabled(context.Context, string) bool { return g.enabled }

type fixture struct {
	svc       *Service
	repo      *mockRepo
	deferrer  *fakeDeferrer
	presenter *notify.MockPresenter
	gate      *stubGate
	clk       clock.FakeClock
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMockRepo(),
		deferrer:  newFakeDeferrer(),
		presenter: &notify.MockPresenter{},
		gate:      &stubGate{enabled: true},
		clk:       clock.NewFake(),
	}
	f.svc = NewService(f.repo, f.deferrer, f.presenter, f.gate, testLogger(), WithClock(f.clk))
	return f
}

func (f *fixture) futureReminder(id string, in time.Duration) *Reminder {
	return &Reminder{
		ReminderID: id,
		Type:       TypeAppointment,
		UserID:     "u1",
		LinkedID:   "appt-1",
		Time:       f.clk.Now().Add(in).UnixMilli(),
	}
}

func TestCreate_PersistsAndSchedules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.futureReminder("r1", time.Hour)
	if err := f.svc.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	if r.Status != StatusScheduled {
		t.Errorf("expected status %q, got %q", StatusScheduled, r.Status)
	}
	stored, err := f.repo.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("reminder not persisted: %v", err)
	}
	if stored.Type != TypeAppointment || stored.UserID != "u1" {
		t.Errorf("unexpected stored record %+v", stored)
	}
	if !f.deferrer.pending("r1") {
		t.Error("expected a deferred task tagged with the reminder id")
	}
}

func TestCreate_GeneratesIDWhenEmpty(t *testing.T) {
	f := newFixture()

	r := f.futureReminder("", time.Hour)
	if err := f.svc.Create(context.Background(), r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.ReminderID == "" {
		t.Fatal("expected a generated reminder id")
	}
	if !f.deferrer.pending(r.ReminderID) {
		t.Error("task tag must match the generated id")
	}
}

func TestCreate_TaskPayloadMatchesReminder(t *testing.T) {
	f := newFixture()

	r := f.futureReminder("r1", time.Hour)
	if err := f.svc.Create(context.Background(), r); err != nil {
		t.Fatalf("create: %v", err)
	}

	var payload TaskPayload
	if err := json.Unmarshal(f.deferrer.payloads["r1"], &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.ReminderID != "r1" || payload.ReminderTime != r.Time || payload.ReminderType != TypeAppointment {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestCreate_PastTimePersistsWithoutTask(t *testing.T) {
	f := newFixture()

	r := f.futureReminder("r1", -time.Hour)
	if err := f.svc.Create(context.Background(), r); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.repo.GetByID(context.Background(), "r1"); err != nil {
		t.Error("past-due reminder must still be persisted")
	}
	if f.deferrer.pendingCount() != 0 {
		t.Error("past-due reminder must not schedule a task")
	}
}

func TestCreate_NotificationsDisabledSkipsScheduling(t *testing.T) {
	f := newFixture()
	f.gate.enabled = false

	r := f.futureReminder("r1", time.Hour)
	if err := f.svc.Create(context.Background(), r); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.repo.GetByID(context.Background(), "r1"); err != nil {
		t.Error("record must be written even with notifications off")
	}
	if f.deferrer.pendingCount() != 0 {
		t.Error("no task may be scheduled while notifications are off")
	}
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	f := newFixture()

	r := f.futureReminder("r1", time.Hour)
	r.Type = "Checkup"
	if err := f.svc.Create(context.Background(), r); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if len(f.repo.rows) != 0 {
		t.Error("invalid reminder must not be persisted")
	}
}

func TestCreate_RepoFailureDoesNotSchedule(t *testing.T) {
	f := newFixture()
	f.repo.failCreate = errors.New("connection refused")

	if err := f.svc.Create(context.Background(), f.futureReminder("r1", time.Hour)); err == nil {
		t.Fatal("expected persistence error")
	}
	if f.deferrer.pendingCount() != 0 {
		t.Error("no task may be scheduled when the record was not written")
	}
}

func TestDelete_CancelsTaskAndRemovesRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.Create(ctx, f.futureReminder("r1", time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.Delete(ctx, "u1", "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.repo.GetByID(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Error("record must be gone after delete")
	}
	if f.deferrer.pending("r1") {
		t.Error("task must be canceled on delete")
	}
	tags := f.deferrer.canceledTags()
	if len(tags) != 1 || tags[0] != "r1" {
		t.Errorf("expected cancel of r1, got %v", tags)
	}
}

func TestDelete_WrongUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.Create(ctx, f.futureReminder("r1", time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.Delete(ctx, "intruder", "r1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.repo.GetByID(ctx, "r1"); err != nil {
		t.Error("record must survive a forbidden delete")
	}
}

func TestDelete_Missing(t *testing.T) {
	f := newFixture()
	if err := f.svc.Delete(context.Background(), "u1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActive_FiltersPastAndSorts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, r := range []*Reminder{
		f.futureReminder("past", -time.Hour),
		f.futureReminder("late", 3 * time.Hour),
		f.futureReminder("soon", time.Hour),
	} {
		if err := f.svc.Create(ctx, r); err != nil {
			t.Fatalf("create %s: %v", r.ReminderID, err)
		}
	}

	active, err := f.svc.Active(ctx, "u1")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active reminders, got %d", len(active))
	}
	if active[0].ReminderID != "soon" || active[1].ReminderID != "late" {
		t.Errorf("expected [soon late], got [%s %s]", active[0].ReminderID, active[1].ReminderID)
	}
}

func TestRescheduleAll_OnlyFutureReminders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Seed records directly, as if tasks were lost across a restart.
	for _, r := range []*Reminder{
		f.futureReminder("past", -time.Hour),
		f.futureReminder("r1", time.Hour),
		f.futureReminder("r2", 2 * time.Hour),
	} {
		r.Status = StatusScheduled
		if err := f.repo.Create(ctx, r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if err := f.svc.RescheduleAll(ctx, "u1"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if f.deferrer.pendingCount() != 2 {
		t.Errorf("expected 2 tasks, got %d", f.deferrer.pendingCount())
	}
	if f.deferrer.pending("past") {
		t.Error("expired reminder must not be rescheduled")
	}
}

func TestRescheduleAll_NoopWhenDisabled(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.futureReminder("r1", time.Hour)
	r.Status = StatusScheduled
	if err := f.repo.Create(ctx, r); err != nil {
		t.Fatalf("seed: %v", err)
	}

	f.gate.enabled = false
	if err := f.svc.RescheduleAll(ctx, "u1"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if f.deferrer.pendingCount() != 0 {
		t.Error("no tasks may be scheduled while notifications are off")
	}
}

func TestCancelAll_CancelsEverythingIncludingPast(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, r := range []*Reminder{
		f.futureReminder("past", -time.Hour),
		f.futureReminder("r1", time.Hour),
	} {
		if err := f.svc.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if err := f.svc.CancelAll(ctx, "u1"); err != nil {
		t.Fatalf("cancel all: %v", err)
	}

	if f.deferrer.pendingCount() != 0 {
		t.Error("expected every task canceled")
	}
	// Cancellation covers all records, not just the future projection.
	if len(f.deferrer.canceledTags()) != 2 {
		t.Errorf("expected 2 cancellations, got %v", f.deferrer.canceledTags())
	}
	if f.presenter.CancelAllCount() != 1 {
		t.Error("expected shown notifications cleared once")
	}
	if rows, _ := f.repo.ListByUser(ctx, "u1"); len(rows) != 2 {
		t.Error("cancel-all must not delete records")
	}
}

func firedJob(t *testing.T, r *Reminder) jobs.Job {
	t.Helper()
	payload, err := json.Marshal(TaskPayload{
		ReminderID:   r.ReminderID,
		ReminderTime: r.Time,
		ReminderType: r.Type,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return jobs.Job{Tag: r.ReminderID, Payload: payload}
}

func TestHandleJob_ShowsNotification(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.futureReminder("r1", time.Hour)
	if err := f.svc.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.svc.HandleJob(ctx, firedJob(t, r))

	shows := f.presenter.Shows()
	if len(shows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(shows))
	}
	if shows[0].ID != notify.NotificationID("r1") {
		t.Errorf("expected stable notification id %d, got %d", notify.NotificationID("r1"), shows[0].ID)
	}
	if shows[0].Title != "Health Reminder" {
		t.Errorf("unexpected title %q", shows[0].Title)
	}
	wantBody := fmt.Sprintf("Reminder for Appointment at %s", time.UnixMilli(r.Time).Local().Format("15:04"))
	if shows[0].Body != wantBody {
		t.Errorf("expected body %q, got %q", wantBody, shows[0].Body)
	}
}

func TestHandleJob_RechecksToggleAtFireTime(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.futureReminder("r1", time.Hour)
	if err := f.svc.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Toggle flipped after scheduling but before firing.
	f.gate.enabled = false
	f.svc.HandleJob(ctx, firedJob(t, r))

	if len(f.presenter.Shows()) != 0 {
		t.Error("notification must not be shown when the toggle is off at fire time")
	}
}

func TestHandleJob_DeletedRecordShowsNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.futureReminder("r1", time.Hour)
	f.svc.HandleJob(ctx, firedJob(t, r))

	if len(f.presenter.Shows()) != 0 {
		t.Error("a fired task for a deleted reminder must deliver nothing")
	}
}

func TestHandleJob_MalformedPayload(t *testing.T) {
	f := newFixture()
	f.svc.HandleJob(context.Background(), jobs.Job{Tag: "r1", Payload: []byte("{broken")})
	if len(f.presenter.Shows()) != 0 {
		t.Error("malformed payload must deliver nothing")
	}
}

func TestWatch_DeliversSnapshotsOnChange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.Create(ctx, f.futureReminder("r1", time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}

	sub, err := f.svc.Watch(ctx, "u1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer sub.Cancel()

	first := <-sub.C()
	if len(first) != 1 || first[0].ReminderID != "r1" {
		t.Fatalf("expected initial snapshot with r1, got %+v", first)
	}

	if err := f.svc.Create(ctx, f.futureReminder("r2", 2*time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := <-sub.C()
	if len(second) != 2 {
		t.Fatalf("expected snapshot with 2 reminders, got %d", len(second))
	}

	if err := f.svc.Delete(ctx, "u1", "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third := <-sub.C()
	if len(third) != 1 || third[0].ReminderID != "r2" {
		t.Errorf("expected snapshot with only r2, got %+v", third)
	}
}

func TestWatch_IsolatedPerUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	other := f.futureReminder("r-other", time.Hour)
	other.UserID = "u2"
	if err := f.svc.Create(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	sub, err := f.svc.Watch(ctx, "u1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer sub.Cancel()

	if snapshot := <-sub.C(); len(snapshot) != 0 {
		t.Errorf("u1 must not see u2's reminders, got %+v", snapshot)
	}
}

func TestObserver_EnableReschedulesDisableCancels(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.futureReminder("r1", time.Hour)
	if err := f.svc.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.gate.enabled = false
	f.svc.OnNotificationsDisabled(ctx, "u1")
	if f.deferrer.pendingCount() != 0 {
		t.Fatal("disable must cancel pending tasks")
	}
	if f.presenter.CancelAllCount() != 1 {
		t.Error("disable must clear shown notifications")
	}

	f.gate.enabled = true
	f.svc.OnNotificationsEnabled(ctx, "u1")
	if !f.deferrer.pending("r1") {
		t.Error("enable must reschedule future reminders")
	}
}
