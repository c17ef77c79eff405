package palette

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"github.com/kingrea/dutyflow/internal/collection"
	"github.com/kingrea/dutyflow/internal/failure"
	"github.com/kingrea/dutyflow/internal/notify"
)

// Workbench holds the palette being edited, the saved collection and the
// latest suggestions. Every user-visible outcome is reported through the
// notifier.
type Workbench struct {
	svc    Service
	saved  *collection.Collection[Palette]
	notify notify.Notifier
	clock  func() time.Time
	copy   func(string) error
	log    zerolog.Logger

	mu          sync.Mutex
	current     *Palette
	designType  DesignType
	suggestions []string
	busy        bool
}

// WorkbenchOption customizes a Workbench.
type WorkbenchOption func(*Workbench)

// WithClock sets the clock used for new palette ids.
func WithClock(clock func() time.Time) WorkbenchOption {
	return func(w *Workbench) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) WorkbenchOption {
	return func(w *Workbench) {
		if write != nil {
			w.copy = write
		}
	}
}

// WithWorkbenchLogger attaches a logger.
func WithWorkbenchLogger(log zerolog.Logger) WorkbenchOption {
	return func(w *Workbench) {
		w.log = log
	}
}

// NewWorkbench wires the prompt service to a saved collection.
func NewWorkbench(svc Service, saved *collection.Collection[Palette], n notify.Notifier, opts ...WorkbenchOption) *Workbench {
	if n == nil {
		n = notify.Nop
	}
	w := &Workbench{
		svc:        svc,
		saved:      saved,
		notify:     n,
		clock:      time.Now,
		copy:       clipboard.WriteAll,
		log:        zerolog.Nop(),
		designType: DesignWebsite,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Current returns a copy of the palette being edited.
func (w *Workbench) Current() (Palette, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return Palette{}, false
	}
	return w.current.clone(), true
}

// Saved lists the saved collection in order.
func (w *Workbench) Saved() []Palette {
	if w.saved == nil {
		return nil
	}
	return w.saved.Items()
}

// Suggestions returns the latest suggestions.
func (w *Workbench) Suggestions() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.suggestions...)
}

// DesignType is the target used by Suggest.
func (w *Workbench) DesignType() DesignType {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.designType
}

// SetDesignType changes the Suggest target.
func (w *Workbench) SetDesignType(d DesignType) {
	w.mu.Lock()
	w.designType = d
	w.mu.Unlock()
}

// Busy reports whether a service call is in flight.
func (w *Workbench) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

func (w *Workbench) claim(op string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return failure.New(failure.KindBusy, op, "A request is already in progress.")
	}
	w.busy = true
	return nil
}

func (w *Workbench) release() {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
}

// Generate replaces the current palette with a fresh one for keywords.
func (w *Workbench) Generate(ctx context.Context, keywords string) (Palette, error) {
	const op = "palette: generate"
	if err := w.claim(op); err != nil {
		return Palette{}, err
	}
	defer w.release()

	colors, err := w.svc.Generate(ctx, keywords)
	if err != nil {
		msg := MsgGenerateFailed
		if failure.KindOf(err) == failure.KindValidation || failure.KindOf(err) == failure.KindBusy {
			msg = failure.Message(err)
		}
		w.log.Warn().Err(err).Str("keywords", keywords).Msg("palette generation failed")
		w.notify.Notify(notify.Error("Generation Failed", msg))
		return Palette{}, err
	}

	p := Palette{ID: NewID(w.clock()), Name: DefaultName, Colors: colors}
	w.mu.Lock()
	w.current = &p
	w.suggestions = nil
	w.mu.Unlock()
	w.notify.Notify(notify.Info("Palette Generated!", "Your new color palette is ready."))
	return p.clone(), nil
}

// Rename sets the current palette's name.
func (w *Workbench) Rename(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return failure.New(failure.KindNotReady, "palette: rename", "No palette is open.")
	}
	w.current.Name = name
	return nil
}

// RenameColor sets the name of the colour at index.
func (w *Workbench) RenameColor(index int, name string) error {
	const op = "palette: rename color"
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return failure.New(failure.KindNotReady, op, "No palette is open.")
	}
	if index < 0 || index >= len(w.current.Colors) {
		return failure.Validation(op, fmt.Sprintf("There is no color %d.", index+1))
	}
	colors := append([]Color(nil), w.current.Colors...)
	colors[index].ColorName = name
	w.current.Colors = colors
	return nil
}

// Save upserts the current palette into the collection. If storage fails
// the palette stays in the collection for this run and "Save Failed" is
// reported instead of the confirmation.
func (w *Workbench) Save(ctx context.Context) error {
	const op = "palette: save"
	cur, ok := w.Current()
	if !ok {
		return failure.New(failure.KindNotReady, op, "No palette is open.")
	}
	if w.saved == nil {
		return failure.Persistence(op, fmt.Errorf("no collection"))
	}
	created, err := w.saved.Put(ctx, cur)
	if err != nil {
		w.notify.Notify(notify.Error("Save Failed", fmt.Sprintf("%q could not be written to storage.", cur.Name)))
		return err
	}
	if created {
		w.notify.Notify(notify.Info("Palette Saved!", fmt.Sprintf("%q has been added to your collection.", cur.Name)))
	} else {
		w.notify.Notify(notify.Info("Palette Updated!", fmt.Sprintf("%q has been updated.", cur.Name)))
	}
	return nil
}

// Delete removes a saved palette. The palette being edited is left alone.
func (w *Workbench) Delete(ctx context.Context, id string) error {
	if w.saved == nil {
		return nil
	}
	if _, err := w.saved.Delete(ctx, id); err != nil {
		w.notify.Notify(notify.Error("Delete Failed", "The palette could not be removed from storage."))
		return err
	}
	w.notify.Notify(notify.Info("Palette Deleted", "The palette has been removed from your collection."))
	return nil
}

// Open makes a saved palette current and clears suggestions.
func (w *Workbench) Open(id string) error {
	const op = "palette: open"
	if w.saved == nil {
		return failure.New(failure.KindNotReady, op, "No saved palettes.")
	}
	p, ok := w.saved.Get(id)
	if !ok {
		return failure.Validation(op, "That palette no longer exists.")
	}
	p = p.clone()
	w.mu.Lock()
	w.current = &p
	w.suggestions = nil
	w.mu.Unlock()
	return nil
}

// Suggest asks how to apply the current palette to the selected design type.
func (w *Workbench) Suggest(ctx context.Context) ([]string, error) {
	const op = "palette: suggest"
	cur, ok := w.Current()
	if !ok {
		return nil, failure.New(failure.KindNotReady, op, "No palette is open.")
	}
	if err := w.claim(op); err != nil {
		return nil, err
	}
	defer w.release()

	suggestions, err := w.svc.Suggest(ctx, cur.HexCodes(), w.DesignType())
	if err != nil {
		msg := MsgSuggestFailed
		if failure.KindOf(err) == failure.KindValidation {
			msg = failure.Message(err)
		}
		w.log.Warn().Err(err).Msg("palette suggestion failed")
		w.notify.Notify(notify.Error("Suggestion Failed", msg))
		return nil, err
	}
	w.mu.Lock()
	w.suggestions = append([]string(nil), suggestions...)
	w.mu.Unlock()
	return suggestions, nil
}

// CopyHex puts the hex code of colour index on the clipboard.
func (w *Workbench) CopyHex(index int) error {
	const op = "palette: copy"
	cur, ok := w.Current()
	if !ok {
		return failure.New(failure.KindNotReady, op, "No palette is open.")
	}
	if index < 0 || index >= len(cur.Colors) {
		return failure.Validation(op, fmt.Sprintf("There is no color %d.", index+1))
	}
	hex := strings.TrimSpace(cur.Colors[index].HexCode)
	if err := w.copy(hex); err != nil {
		w.notify.Notify(notify.Error("Copy Failed", "The clipboard is not available."))
		return fmt.Errorf("%s: %w", op, err)
	}
	w.notify.Notify(notify.Info("Copied to clipboard!", hex))
	return nil
}
