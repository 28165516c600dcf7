package cli

import (
	"github.com/charmbracelet/huh"

	"github.com/alexanderramin/mindflow/internal/cli/formatter"
)

// formTheme styles huh prompts with the same palette as the rest of the
// output: purple accents on focus, everything dimmed when blurred.
func formTheme() *huh.Theme {
	t := huh.ThemeBase()

	accent := formatter.StylePurple.Bold(true)
	t.Focused.Title = accent
	t.Focused.Description = formatter.StyleDim
	t.Focused.ErrorMessage = formatter.StyleRed
	t.Focused.TextInput.Prompt = formatter.StylePurple
	t.Focused.TextInput.Cursor = formatter.StylePurple
	t.Focused.TextInput.Text = formatter.StyleFg
	t.Focused.TextInput.Placeholder = formatter.StyleDim

	t.Blurred.Title = formatter.StyleDim
	t.Blurred.TextInput.Prompt = formatter.StyleDim
	t.Blurred.TextInput.Text = formatter.StyleDim
	return t
}
