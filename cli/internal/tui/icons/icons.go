// ABOUTME: Upload panel icons with Nerd Font detection and Unicode fallback
// ABOUTME: DRIVE_NERD_FONTS forces the choice; otherwise known terminals enable Nerd Fonts

package icons

import (
	"os"
	"strings"
	"sync"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// detectNerdFonts checks if Nerd Fonts should be used
func detectNerdFonts() bool {
	// Explicit override via environment variable
	if env := os.Getenv("DRIVE_NERD_FONTS"); env != "" {
		return env == "1" || strings.ToLower(env) == "true"
	}

	// Check for terminals known to commonly have Nerd Fonts
	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	// iTerm2, Alacritty, WezTerm, Kitty typically have Nerd Fonts
	nerdFontTerminals := []string{
		"iTerm.app",
		"alacritty",
		"WezTerm",
		"kitty",
		"ghostty",
	}

	for _, t := range nerdFontTerminals {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}

	// Check for common Nerd Font environment indicators
	if os.Getenv("NERD_FONTS") == "1" {
		return true
	}

	// Default to Unicode fallback for maximum compatibility
	return false
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

// Icon definitions - Nerd Font codepoints with Unicode fallbacks
var (
	// Items
	File   = Icon{"\U000f0214", "▤"} // nf-md-file
	Folder = Icon{"\U000f024b", "▰"} // nf-md-folder
	Cloud  = Icon{"\U000f0167", "☁"} // nf-md-cloud_upload
	User   = Icon{"\U000f0004", "☺"} // nf-md-account

	// Upload states
	Pending   = Icon{"\U000f051f", "○"} // nf-md-timer_sand
	Uploading = Icon{"\U000f0552", "↑"} // nf-md-upload
	CheckOK   = Icon{"\uf058", "✓"}     // nf-fa-check_circle
	Critical  = Icon{"\uf057", "✗"}     // nf-fa-times_circle
	Warning   = Icon{"\uf071", "⚠"}     // nf-fa-warning

	// Actions
	Cancel = Icon{"\U000f0156", "⊘"} // nf-md-close_circle
	Clear  = Icon{"\U000f00e2", "⌫"} // nf-md-broom
	Quit   = Icon{"\U000f05fc", "×"} // nf-md-exit_to_app
	Select = Icon{"\U000f0142", "›"} // nf-md-chevron_right

	// Application
	App = Icon{"\U000f024b", "◈"} // nf-md-folder (drive theme)
)
