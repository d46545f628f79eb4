package tui

import (
	"os"
	"strings"
	"sync"
)

// Terminal apps can't change the user's font. Instead we choose between Unicode and
// ASCII glyphs for rules, prompts and placeholders, for fonts that render some
// glyphs badly.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("TEMPO_TUI_GLYPHS")))
	switch v {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	default:
		// Unknown value: ignore.
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

// glyphRule is the character repeated under each day header.
func glyphRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}

func glyphPrompt() string {
	if glyphs() == glyphSetASCII {
		return "> "
	}
	return "› "
}

// glyphPending stands in for data that has not arrived yet.
func glyphPending() string {
	if glyphs() == glyphSetASCII {
		return "..."
	}
	return "…"
}
