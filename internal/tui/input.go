package tui

import "unicode/utf8"

// maxInputLen is the maximum number of runes allowed in form and chat inputs.
const maxInputLen = 2000

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderFormField renders one labeled form line with a focus cursor.
// Secret fields are masked rune-for-rune.
func renderFormField(label, value string, focused, secret bool) string {
	display := value
	if secret {
		display = maskSecret(value)
	}
	cursor := " "
	style := metaStyle
	if focused {
		cursor = ">"
		style = selectedStyle
		display += "█"
	}
	return cursor + " " + style.Render(label) + ": " + display
}

func maskSecret(s string) string {
	n := utf8.RuneCountInString(s)
	masked := make([]rune, n)
	for i := range masked {
		masked[i] = '•'
	}
	return string(masked)
}

// renderChatInput renders the inline assistant composer with cursor blink
// and a placeholder when empty.
func renderChatInput(input, placeholder string, animFrame int) string {
	sep := chatSepStyle.Render(" · ")
	prompt := inputPromptStyle.Render("you")
	cursor := " "
	if (animFrame/4)%2 == 0 {
		cursor = accentStyle.Render("█")
	}
	if input == "" {
		return " " + prompt + sep + inputPlaceholderStyle.Render(placeholder) + cursor
	}
	return " " + prompt + sep + chatSelfStyle.Render(input) + cursor
}
