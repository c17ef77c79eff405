// Package notify carries the toast-style notifications raised by the
// dashboard and the palette workbench.
package notify

import (
	"sync"
	"time"

	"github.com/kingrea/dutyflow/internal/logbook"
)

// Variant selects how a notification is rendered.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is one dismissible message.
type Notification struct {
	Title       string
	Description string
	Variant     Variant
	At          time.Time
}

// IsError reports whether the notification describes a failure.
func (n Notification) IsError() bool { return n.Variant == VariantDestructive }

// Notifier receives notifications.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Nop drops everything.
var Nop Notifier = NotifierFunc(func(Notification) {})

// Info builds a default notification.
func Info(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: VariantDefault}
}

// Error builds a destructive notification.
func Error(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: VariantDestructive}
}

// Recorder keeps every notification in arrival order.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
	clock func() time.Time
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{clock: time.Now}
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.At.IsZero() {
		n.At = r.clock()
	}
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Titles lists the recorded titles, handy in assertions.
func (r *Recorder) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, len(r.items))
	for i, n := range r.items {
		titles[i] = n.Title
	}
	return titles
}

// Journal writes notifications to the activity logbook.
type Journal struct {
	Book *logbook.Logbook
}

func (j Journal) Notify(n Notification) {
	if j.Book == nil {
		return
	}
	if n.IsError() {
		j.Book.Error("%s · %s", n.Title, n.Description)
		return
	}
	j.Book.Info("%s · %s", n.Title, n.Description)
}

// Fanout delivers to every non-nil notifier.
func Fanout(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(n Notification) {
		if n.At.IsZero() {
			n.At = time.Now()
		}
		for _, target := range notifiers {
			if target != nil {
				target.Notify(n)
			}
		}
	})
}
