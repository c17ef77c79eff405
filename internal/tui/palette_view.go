package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/dutyflow/internal/palette"
)

var (
	swatchLabelStyle = lipgloss.NewStyle().Width(12)
	detailTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#0EA5E9")).Bold(true)
)

// paletteView drives the palette workbench screen. Keys arrive from App
// once the content area has focus.
type paletteView struct {
	app       *App
	selection int
}

func newPaletteView(app *App) *paletteView {
	return &paletteView{app: app}
}

func (v *paletteView) workbench() *palette.Workbench {
	return v.app.deps.Palettes
}

// Update handles one key press and returns the command to run, if any.
func (v *paletteView) Update(key string) tea.Cmd {
	wb := v.workbench()
	if wb == nil {
		return nil
	}
	saved := wb.Saved()
	switch key {
	case "g":
		return v.app.beginInput(inputKeywords, "Keywords, e.g. serene forest dawn", "")
	case "e":
		cur, ok := wb.Current()
		if !ok {
			return nil
		}
		return v.app.beginInput(inputPaletteName, "Palette name", cur.Name)
	case "s":
		return v.run("save", wb.Save)
	case "x":
		return v.run("suggest", func(ctx context.Context) error {
			_, err := wb.Suggest(ctx)
			return err
		})
	case "p":
		wb.SetDesignType(nextDesignType(wb.DesignType()))
		return nil
	case "up":
		if v.selection > 0 {
			v.selection--
		}
	case "down":
		if v.selection < len(saved)-1 {
			v.selection++
		}
	case "o":
		if v.selection < len(saved) {
			if err := wb.Open(saved[v.selection].ID); err != nil {
				v.app.statusMsg = err.Error()
			}
		}
	case "d":
		if v.selection < len(saved) {
			id := saved[v.selection].ID
			if v.selection > 0 && v.selection == len(saved)-1 {
				v.selection--
			}
			return v.run("delete", func(ctx context.Context) error {
				return wb.Delete(ctx, id)
			})
		}
	case "1", "2", "3", "4", "5":
		index := int(key[0] - '1')
		if err := wb.CopyHex(index); err != nil {
			v.app.logWarn("Copy failed · %v", err)
		}
	}
	return nil
}

func (v *paletteView) run(op string, fn func(context.Context) error) tea.Cmd {
	v.app.pending++
	return tea.Batch(v.app.spinner.Tick, func() tea.Msg {
		ctx, cancel := v.app.ctx()
		defer cancel()
		return paletteMsg{op: op, err: fn(ctx)}
	})
}

func nextDesignType(cur palette.DesignType) palette.DesignType {
	for i, d := range palette.DesignTypes {
		if d == cur {
			return palette.DesignTypes[(i+1)%len(palette.DesignTypes)]
		}
	}
	return palette.DesignTypes[0]
}

// beginInput points the shared text input at a palette field.
func (a *App) beginInput(mode inputMode, placeholder, value string) tea.Cmd {
	a.inputMode = mode
	a.input.Reset()
	a.input.EchoMode = textinput.EchoNormal
	a.input.Placeholder = placeholder
	a.input.SetValue(value)
	return a.input.Focus()
}

func (a *App) endInput() {
	a.inputMode = inputNone
	a.input.Blur()
	a.input.Reset()
}

func (a *App) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.endInput()
		return a, nil
	case "enter":
		value := a.input.Value()
		mode := a.inputMode
		a.endInput()
		wb := a.deps.Palettes
		if wb == nil {
			return a, nil
		}
		switch mode {
		case inputKeywords:
			return a, a.palettes.run("generate", func(ctx context.Context) error {
				_, err := wb.Generate(ctx, value)
				return err
			})
		case inputPaletteName:
			if err := wb.Rename(value); err != nil {
				a.statusMsg = err.Error()
			}
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// View renders the workbench: the open palette, suggestions and the saved
// collection.
func (v *paletteView) View(width int) string {
	wb := v.workbench()
	if wb == nil {
		return "The palette service is not configured."
	}
	var b strings.Builder
	th := v.app.theme

	b.WriteString(th.heading.Render("Color Palettes"))
	b.WriteString("\n\n")
	if v.app.inputMode == inputKeywords || v.app.inputMode == inputPaletteName {
		b.WriteString(v.app.input.View())
		b.WriteString("\n\n")
	}

	cur, ok := wb.Current()
	if !ok {
		b.WriteString(detailTextStyle.Render("No palette yet. Press g and describe a mood to generate one."))
		b.WriteString("\n")
	} else {
		b.WriteString(th.label.Render(cur.Name))
		b.WriteString("\n")
		for i, c := range cur.Colors {
			swatch := lipgloss.NewStyle().Background(lipgloss.Color(c.HexCode)).Render("      ")
			fmt.Fprintf(&b, "%d %s %s %s\n", i+1, swatch, swatchLabelStyle.Render(c.HexCode), c.ColorName)
		}
	}

	b.WriteString("\n")
	b.WriteString(th.label.Render("Design type: "))
	b.WriteString(wb.DesignType().Title())
	b.WriteString("\n")
	if suggestions := wb.Suggestions(); len(suggestions) > 0 {
		b.WriteString(th.label.Render("Suggestions"))
		b.WriteString("\n")
		for _, s := range suggestions {
			b.WriteString(wrapText("• "+s, width))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(th.label.Render("Saved Palettes"))
	b.WriteString("\n")
	saved := wb.Saved()
	if len(saved) == 0 {
		b.WriteString(detailTextStyle.Render("Nothing saved yet."))
		b.WriteString("\n")
	}
	if v.selection >= len(saved) {
		v.selection = max(0, len(saved)-1)
	}
	for i, p := range saved {
		line := fmt.Sprintf("%s  %s", p.Name, strings.Join(p.HexCodes(), " "))
		if i == v.selection {
			b.WriteString(selectedStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(detailTextStyle.Render("[g] generate  [e] rename  [s] save  [x] suggest  [p] design type  [1-5] copy hex  [o] open  [d] delete"))
	return b.String()
}

func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
