package main

import (
	"fmt"
	"strings"

	"github.com/georgy7/code2fodt/internal/charset"
)

const (
	probeModeFile    = "file"
	probeModeChardet = "chardet"
)

func normalizeProbeMode(mode string) (string, bool) {
	m := strings.TrimSpace(strings.ToLower(mode))
	switch m {
	case "", probeModeFile, "file(1)", "libmagic", "magic":
		return probeModeFile, true
	case probeModeChardet, "builtin", "go":
		return probeModeChardet, true
	default:
		return "", false
	}
}

// resolveProbeMode picks the flag value when it was set, then the config
// value, then file(1).
func resolveProbeMode(configMode string, flagMode string, flagChanged bool) (string, error) {
	mode := configMode
	source := "config"
	if flagChanged {
		mode = flagMode
		source = "--probe"
	}
	normalized, ok := normalizeProbeMode(mode)
	if !ok {
		return "", fmt.Errorf("invalid %s value %q (expected file or chardet)", source, mode)
	}
	return normalized, nil
}

func newProbe(mode string) charset.ContentEncodingProbe {
	if mode == probeModeChardet {
		return charset.ChardetProbe{}
	}
	return charset.FileCommandProbe{}
}
