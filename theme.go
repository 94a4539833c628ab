package reveal

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg   int // User message accent
	Assistant int // Assistant message accent
	Cursor    int // Typing cursor on the streaming message
	Error     int // Failed replies and errors
	Muted     int // Status bar, placeholders, stopped marker
	Accent    int // Headings
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:   4,
		Assistant: 2,
		Cursor:    5,
		Error:     1,
		Muted:     8,
		Accent:    5,
	}
}
