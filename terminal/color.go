package terminal

import (
	"fmt"
	"os"
	"strings"
)

// ColorMode indicates terminal color capability
type ColorMode uint8

const (
	ColorModeAuto      ColorMode = iota // Decided by DetectColorMode
	ColorMode256                        // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
)

func (m ColorMode) String() string {
	switch m {
	case ColorMode256:
		return "256"
	case ColorModeTrueColor:
		return "truecolor"
	default:
		return "auto"
	}
}

// ParseColorMode maps a --color flag value to a mode
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ColorModeAuto, nil
	case "256":
		return ColorMode256, nil
	case "truecolor", "true", "24bit":
		return ColorModeTrueColor, nil
	default:
		return ColorModeAuto, fmt.Errorf("unknown color mode %q (auto, truecolor, 256)", s)
	}
}

// DetectColorMode determines terminal color capability from environment
func DetectColorMode() ColorMode {
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return ColorModeTrueColor
	}

	if os.Getenv("KITTY_WINDOW_ID") != "" ||
		os.Getenv("KONSOLE_VERSION") != "" ||
		os.Getenv("ITERM_SESSION_ID") != "" ||
		os.Getenv("ALACRITTY_WINDOW_ID") != "" ||
		os.Getenv("WEZTERM_PANE") != "" {
		return ColorModeTrueColor
	}

	term := os.Getenv("TERM")
	if strings.Contains(term, "truecolor") ||
		strings.Contains(term, "24bit") ||
		strings.Contains(term, "direct") {
		return ColorModeTrueColor
	}

	return ColorMode256
}

// resolve replaces ColorModeAuto with the detected mode and exports the choice to tcell,
// which reads TCELL_TRUECOLOR when the screen is created
func (m ColorMode) resolve() ColorMode {
	if m == ColorModeAuto {
		m = DetectColorMode()
	}
	if m == ColorMode256 {
		os.Setenv("TCELL_TRUECOLOR", "disable")
	} else {
		os.Unsetenv("TCELL_TRUECOLOR")
	}
	return m
}
