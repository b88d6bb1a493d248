package paint

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses a color written as six hex digits with an optional
// leading '#'. The result is opaque.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 || strings.Trim(hex, "0123456789abcdefABCDEF") != "" {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, ErrInput)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %v: %w", s, err, ErrInput)
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}, nil
}

// FormatColor renders c as "#rrggbb", ignoring alpha.
func FormatColor(c color.RGBA) string {
	c.A = 255
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}
