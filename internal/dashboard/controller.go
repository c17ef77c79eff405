// Package dashboard drives the rotation dashboard: it fetches status, gates
// the mutating controls by role, serialises requests and reports every
// outcome as a notification.
//
//	Loading ──ok──▶ Ready ──action──▶ Loading ──refetch ok──▶ Ready
//	   │                                  │
//	   └──fail──▶ Error ◀──refetch fail───┘
package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kingrea/dutyflow/internal/access"
	"github.com/kingrea/dutyflow/internal/failure"
	"github.com/kingrea/dutyflow/internal/notify"
	"github.com/kingrea/dutyflow/internal/rotation"
)

// State is the dashboard lifecycle state.
type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MsgLoadFailed is shown in place of the cards when status cannot be fetched.
const MsgLoadFailed = "Could not load dashboard information from the server."

// RoleSource reports the signed-in user's role. session.Store satisfies it.
type RoleSource interface {
	Role() access.Role
}

// RoleFunc adapts a function to RoleSource.
type RoleFunc func() access.Role

func (f RoleFunc) Role() access.Role { return f() }

// Snapshot is a consistent copy of the dashboard for rendering.
type Snapshot struct {
	State     State
	Status    rotation.Status
	HasStatus bool
	Error     string
	Busy      bool
	Draft     string
	Role      access.Role
	UpdatedAt time.Time
}

// Controller owns dashboard state. All methods are safe for concurrent use;
// at most one request is in flight at a time.
type Controller struct {
	api    rotation.API
	roles  RoleSource
	notify notify.Notifier
	clock  func() time.Time
	log    zerolog.Logger

	mu        sync.Mutex
	state     State
	status    rotation.Status
	hasStatus bool
	errMsg    string
	busy      bool
	draft     string
	updatedAt time.Time
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock sets the controller's clock.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// New returns a controller in the Loading state. Call Load to enter the
// dashboard.
func New(api rotation.API, roles RoleSource, n notify.Notifier, opts ...Option) *Controller {
	if n == nil {
		n = notify.Nop
	}
	c := &Controller{
		api:    api,
		roles:  roles,
		notify: n,
		clock:  time.Now,
		log:    zerolog.Nop(),
		state:  StateLoading,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Controller) role() access.Role {
	if c.roles == nil {
		return access.RoleNone
	}
	return c.roles.Role()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:     c.state,
		Status:    c.status,
		HasStatus: c.hasStatus,
		Error:     c.errMsg,
		Busy:      c.busy,
		Draft:     c.draft,
		Role:      c.role(),
		UpdatedAt: c.updatedAt,
	}
}

// Can reports whether action is currently usable: permitted for the role,
// the dashboard is Ready (for mutations) and nothing is in flight.
func (c *Controller) Can(action access.Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guard(action) == nil
}

// guard runs with mu held.
func (c *Controller) guard(action access.Action) error {
	op := "dashboard: " + action.String()
	if !access.Can(c.role(), action) {
		return failure.New(failure.KindForbidden, op, "You do not have permission to do that.")
	}
	if c.busy {
		return failure.New(failure.KindBusy, op, "A request is already in progress.")
	}
	if action.Mutating() && c.state != StateReady {
		return failure.New(failure.KindNotReady, op, "The dashboard is not ready.")
	}
	return nil
}

func (c *Controller) claim(action access.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guard(action); err != nil {
		c.log.Debug().Err(err).Str("action", action.String()).Msg("action rejected")
		return err
	}
	c.busy = true
	c.state = StateLoading
	return nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// Draft returns the custom reminder text being composed.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the custom reminder text.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Load enters (or refreshes) the dashboard. Only one load or action runs at
// a time; a second caller gets a Busy error.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.claim(access.ActionRefresh); err != nil {
		return err
	}
	defer c.release()
	return c.fetch(ctx)
}

// fetch runs with the busy flag held by the caller.
func (c *Controller) fetch(ctx context.Context) error {
	status, err := c.api.FetchStatus(ctx)
	c.mu.Lock()
	if err != nil {
		c.state = StateError
		c.status = rotation.Status{}
		c.hasStatus = false
		c.errMsg = MsgLoadFailed
		c.mu.Unlock()
		c.log.Error().Err(err).Msg("dashboard fetch failed")
		c.notify.Notify(notify.Error("Error fetching dashboard data", MsgLoadFailed))
		return err
	}
	c.state = StateReady
	c.status = status
	c.hasStatus = true
	c.errMsg = ""
	c.updatedAt = c.clock()
	c.mu.Unlock()
	c.log.Info().
		Str("current", status.CurrentDuty.Name).
		Str("next", status.NextInRotation.Name).
		Msg("dashboard loaded")
	return nil
}

type outcome struct {
	okTitle, okText     string
	failTitle, failText string
}

var outcomes = map[access.Action]outcome{
	access.ActionSendReminder: {
		"Reminder Sent!", "The reminder has been successfully sent and the turn has been advanced.",
		"Error Sending Reminder", "Could not send the reminder.",
	},
	access.ActionSendCustomReminder: {
		"Reminder Sent!", "The reminder has been successfully sent and the turn has been advanced.",
		"Error Sending Reminder", "Could not send the reminder.",
	},
	access.ActionSkipTurn: {
		"Turn Skipped", "The current turn has been skipped successfully.",
		"Error Skipping Turn", "Could not skip the current turn.",
	},
	access.ActionAdvanceTurn: {
		"Turn Advanced", "The duty has been manually advanced to the next person.",
		"Error Advancing Turn", "Could not advance the current turn.",
	},
}

// mutate runs call and then always refetches, in that order. The returned
// error is the action's own; a failed refetch is reported separately by
// fetch.
func (c *Controller) mutate(ctx context.Context, action access.Action, call func(context.Context) error, onSuccess func()) error {
	if err := c.claim(action); err != nil {
		return err
	}
	defer c.release()

	o := outcomes[action]
	err := call(ctx)
	if err != nil {
		// The previous status stays on screen until the refetch replaces it.
		c.log.Error().Err(err).Str("action", action.String()).Msg("rotation action failed")
		c.notify.Notify(notify.Error(o.failTitle, o.failText))
	} else {
		c.log.Info().Str("action", action.String()).Str("role", c.role().String()).Msg("rotation action succeeded")
		if onSuccess != nil {
			onSuccess()
		}
		c.notify.Notify(notify.Info(o.okTitle, o.okText))
	}
	_ = c.fetch(ctx)
	return err
}

// SendReminder sends the standard weekly reminder.
func (c *Controller) SendReminder(ctx context.Context) error {
	return c.mutate(ctx, access.ActionSendReminder, func(ctx context.Context) error {
		return c.api.SendReminder(ctx, rotation.Standard())
	}, nil)
}

// SendCustomReminder sends the current draft. An empty draft is rejected
// before any request; on success the draft is cleared.
func (c *Controller) SendCustomReminder(ctx context.Context) error {
	text := strings.TrimSpace(c.Draft())
	if text == "" {
		return failure.Validation("dashboard: "+access.ActionSendCustomReminder.String(), "Enter a reminder message first.")
	}
	return c.mutate(ctx, access.ActionSendCustomReminder, func(ctx context.Context) error {
		return c.api.SendReminder(ctx, rotation.Custom(text))
	}, func() {
		c.SetDraft("")
	})
}

// SkipTurn skips the person on duty.
func (c *Controller) SkipTurn(ctx context.Context) error {
	return c.mutate(ctx, access.ActionSkipTurn, c.api.SkipTurn, nil)
}

// AdvanceTurn hands the duty to the next person.
func (c *Controller) AdvanceTurn(ctx context.Context) error {
	return c.mutate(ctx, access.ActionAdvanceTurn, c.api.AdvanceTurn, nil)
}

// Do dispatches action by value.
func (c *Controller) Do(ctx context.Context, action access.Action) error {
	switch action {
	case access.ActionRefresh:
		return c.Load(ctx)
	case access.ActionSendReminder:
		return c.SendReminder(ctx)
	case access.ActionSendCustomReminder:
		return c.SendCustomReminder(ctx)
	case access.ActionSkipTurn:
		return c.SkipTurn(ctx)
	case access.ActionAdvanceTurn:
		return c.AdvanceTurn(ctx)
	}
	return failure.New(failure.KindForbidden, "dashboard: "+action.String(), "Unknown action.")
}
