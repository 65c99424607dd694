// Package notify provides the notification presentation surface for reminder
// delivery: showing, canceling, and clearing user-visible notifications
// addressed by a stable numeric id.
package notify

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Presenter is the notification surface contract. Show and Cancel address a
// notification by the id derived from the reminder id, so both sides agree.
type Presenter interface {
	Show(id int, title, body string)
	Cancel(id int)
	CancelAll()
}

// NotificationID derives a stable numeric notification id from a reminder id
// using FNV-32a.
func NotificationID(reminderID string) int {
	h := fnv.New32a()
	h.Write([]byte(reminderID))
	return int(int32(h.Sum32()))
}

// Notification is a single entry on the presentation surface.
type Notification struct {
	ID      int       `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	ShownAt time.Time `json:"shown_at"`
}

// Center is an in-memory Presenter that tracks currently shown notifications.
// Showing with an id that is already present replaces the existing entry.
type Center struct {
	mu     sync.RWMutex
	active map[int]*Notification
	logger zerolog.Logger
}

// NewCenter creates an empty notification center.
func NewCenter(logger zerolog.Logger) *Center {
	return &Center{
		active: make(map[int]*Notification),
		logger: logger,
	}
}

func (c *Center) Show(id int, title, body string) {
	c.mu.Lock()
	c.active[id] = &Notification{
		ID:      id,
		Title:   title,
		Body:    body,
		ShownAt: time.Now().UTC(),
	}
	c.mu.Unlock()

	c.logger.Info().Int("notification_id", id).Str("title", title).Msg("notification shown")
}

// Cancel removes a notification. Canceling an unknown id is a no-op.
func (c *Center) Cancel(id int) {
	c.mu.Lock()
	delete(c.active, id)
	c.mu.Unlock()
}

func (c *Center) CancelAll() {
	c.mu.Lock()
	c.active = make(map[int]*Notification)
	c.mu.Unlock()

	c.logger.Info().Msg("all notifications cleared")
}

// Active returns a copy of the currently shown notifications.
func (c *Center) Active() []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Notification, 0, len(c.active))
	for _, n := range c.active {
		out = append(out, *n)
	}
	return out
}

// ShowCall records a single call to Show.
type ShowCall struct {
	ID    int
	Title string
	Body  string
}

// MockPresenter is a test double for Presenter.
type MockPresenter struct {
	mu         sync.Mutex
	shows      []ShowCall
	cancels    []int
	cancelAlls int
}

func (m *MockPresenter) Show(id int, title, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shows = append(m.shows, ShowCall{ID: id, Title: title, Body: body})
}

func (m *MockPresenter) Cancel(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels = append(m.cancels, id)
}

func (m *MockPresenter) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelAlls++
}

// Shows returns a copy of recorded Show calls.
func (m *MockPresenter) Shows() []ShowCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ShowCall, len(m.shows))
	copy(out, m.shows)
	return out
}

// Cancels returns a copy of recorded Cancel calls.
func (m *MockPresenter) Cancels() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.cancels))
	copy(out, m.cancels)
	return out
}

// CancelAllCount returns how many times CancelAll was called.
func (m *MockPresenter) CancelAllCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelAlls
}
