package rotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the rotation read model. It is never patched locally; the
// dashboard replaces it with a fresh FetchStatus after every mutation.
type Status struct {
	CurrentDuty    Person       `json:"current_duty"`
	NextInRotation Person       `json:"next_in_rotation"`
	SystemStatus   SystemStatus `json:"system_status"`
}

// Person is a member of the rotation.
type Person struct {
	ID   Ident  `json:"id"`
	Name string `json:"name"`
}

// SystemStatus carries scheduler bookkeeping.
type SystemStatus struct {
	LastReminderRun Label `json:"last_reminder_run"`
}

// Ident accepts both string and numeric ids from the API.
type Ident string

func (i *Ident) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = Ident(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rotation: id must be a string or number: %w", err)
	}
	*i = Ident(n.String())
	return nil
}

// Label is a free-form display value. The API sends either a string
// ("never", an RFC 3339 timestamp) or null.
type Label string

func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rotation: label must be a string: %w", err)
	}
	*l = Label(n.String())
	return nil
}

// Display renders the label for a card, formatting timestamps and falling
// back to "N/A".
func (l Label) Display() string {
	s := strings.TrimSpace(string(l))
	if s == "" {
		return "N/A"
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.Local().Format("02-01-2006 15:04")
	}
	return s
}

// DisplayName returns the person's name or "N/A".
func (p Person) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return "N/A"
}

// Reminder is either the standard weekly reminder or a custom message. The
// choice is made once, when the reminder is built.
type Reminder struct {
	custom  bool
	message string
}

// Standard is the weekly reminder with the server's default wording.
func Standard() Reminder { return Reminder{} }

// Custom carries caller-supplied text.
func Custom(message string) Reminder {
	return Reminder{custom: true, message: message}
}

// IsCustom reports whether the reminder carries its own text.
func (r Reminder) IsCustom() bool { return r.custom }

// Message returns the custom text, or "" for the standard reminder.
func (r Reminder) Message() string { return r.message }

type reminderBody struct {
	Message string `json:"message,omitempty"`
}

func (r Reminder) body() reminderBody {
	if !r.custom {
		return reminderBody{}
	}
	return reminderBody{Message: r.message}
}

// Issue is an entry on the public issue feed.
type Issue struct {
	ID          Ident  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	ReportedBy  string `json:"reported_by"`
	CreatedAt   Label  `json:"created_at"`
}
