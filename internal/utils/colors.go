package utils

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/colornames"
)

var ErrNoColorName = errors.New("no color name for this hex value")

var (
	hexToName     map[string]string
	hexToNameOnce sync.Once
)

func buildHexToName() {
	hexToName = make(map[string]string, len(colornames.Names))
	for _, name := range colornames.Names {
		c := colornames.Map[name]
		key := fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
		// first name wins: Names is sorted, so e.g. "aqua" beats "cyan"
		if _, ok := hexToName[key]; !ok {
			hexToName[key] = name
		}
	}
}

// HexToColorName resolves a hex color string ("#RRGGBB" or "#RGB") to its
// CSS color name. Hex values without an exact named match are rejected.
func HexToColorName(hex string) (string, error) {
	hexToNameOnce.Do(buildHexToName)

	s := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hex), "#"))
	if len(s) == 3 {
		s = fmt.Sprintf("%c%c%c%c%c%c", s[0], s[0], s[1], s[1], s[2], s[2])
	}
	if len(s) != 6 {
		return "", ErrNoColorName
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return "", ErrNoColorName
		}
	}

	name, ok := hexToName[s]
	if !ok {
		return "", ErrNoColorName
	}
	return name, nil
}
