package raster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrNoFont is returned when a font name matches nothing this display has.
var ErrNoFont = errors.New("raster: no matching font")

const (
	fixedSize   = 13
	defaultSize = 12
)

// style is one of the Go font families.
type style int

const (
	styleMono style = iota
	styleSans
	styleSerif
)

// families maps family names found in font patterns to a Go font family.
var families = map[string]style{
	"fixed":            styleMono,
	"courier":          styleMono,
	"courier new":      styleMono,
	"mono":             styleMono,
	"monospace":        styleMono,
	"go mono":          styleMono,
	"lucidatypewriter": styleMono,
	"terminal":         styleMono,
	"helvetica":        styleSans,
	"arial":            styleSans,
	"sans":             styleSans,
	"sans-serif":       styleSans,
	"lucida":           styleSans,
	"go":               styleSans,
	"times":            styleSerif,
	"times new roman":  styleSerif,
	"serif":            styleSerif,
	"charter":          styleSerif,
	"go medium":        styleSerif,
}

// fontSpec is a parsed font name.
type fontSpec struct {
	path   string
	style  style
	bold   bool
	italic bool
	size   float64
}

// parseFontName understands three forms:
//
//   - "fixed"
//   - XLFD patterns, e.g. "-*-courier-bold-r-normal-*-180-*"
//   - a TrueType/OpenType file, optionally with a size: "/path/font.ttf:18"
//   - a family name, optionally with a size: "helvetica:14"
func parseFontName(name string) (fontSpec, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fontSpec{}, fmt.Errorf("%w: empty name", ErrNoFont)
	case strings.EqualFold(name, "fixed"):
		return fontSpec{style: styleMono, size: fixedSize}, nil
	case strings.HasPrefix(name, "-"):
		return parseXLFD(name)
	}

	base, size := splitSize(name)
	if isFontFile(base) {
		return fontSpec{path: base, size: size}, nil
	}
	st, ok := families[strings.ToLower(base)]
	if !ok {
		return fontSpec{}, fmt.Errorf("%w: %q", ErrNoFont, name)
	}
	return fontSpec{style: st, size: size}, nil
}

// parseXLFD reads family, weight, slant and size from an X logical font
// description. A "*" family matches the monospace family.
func parseXLFD(name string) (fontSpec, error) {
	fields := strings.Split(name[1:], "-")
	field := func(i int) string {
		if i < len(fields) {
			return strings.ToLower(fields[i])
		}
		return "*"
	}

	spec := fontSpec{style: styleMono, size: defaultSize}

	if fam := field(1); fam != "*" && fam != "" {
		st, ok := families[fam]
		if !ok {
			return fontSpec{}, fmt.Errorf("%w: family %q", ErrNoFont, fam)
		}
		spec.style = st
	}
	switch field(2) {
	case "bold", "demibold", "black", "heavy":
		spec.bold = true
	}
	switch field(3) {
	case "i", "o":
		spec.italic = true
	}
	// The first numeric field is the size; large values are decipoints.
	for i := 4; i < len(fields); i++ {
		n, err := strconv.Atoi(fields[i])
		if err != nil || n <= 0 {
			continue
		}
		if n >= 40 {
			spec.size = float64(n) / 10
		} else {
			spec.size = float64(n)
		}
		break
	}
	return spec, nil
}

// splitSize cuts a ":size" suffix off name.
func splitSize(name string) (string, float64) {
	i := strings.LastIndex(name, ":")
	if i <= 0 {
		return name, defaultSize
	}
	size, err := strconv.ParseFloat(name[i+1:], 64)
	if err != nil || size <= 0 {
		return name, defaultSize
	}
	return name[:i], size
}

func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

// data returns the font file contents for spec.
func (s fontSpec) data() ([]byte, error) {
	if s.path != "" {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoFont, err)
		}
		return b, nil
	}
	switch s.style {
	case styleSans:
		switch {
		case s.bold && s.italic:
			return gobolditalic.TTF, nil
		case s.bold:
			return gobold.TTF, nil
		case s.italic:
			return goitalic.TTF, nil
		}
		return goregular.TTF, nil
	case styleSerif:
		if s.bold {
			return gobold.TTF, nil
		}
		if s.italic {
			return gomediumitalic.TTF, nil
		}
		return gomedium.TTF, nil
	default:
		switch {
		case s.bold && s.italic:
			return gomonobolditalic.TTF, nil
		case s.bold:
			return gomonobold.TTF, nil
		case s.italic:
			return gomonoitalic.TTF, nil
		}
		return gomono.TTF, nil
	}
}

// fontEntry is a loaded font.
type fontEntry struct {
	name   string
	source *text.FontSource
	face   text.Face
}

func openFont(name string) (*fontEntry, error) {
	spec, err := parseFontName(name)
	if err != nil {
		return nil, err
	}
	data, err := spec.data()
	if err != nil {
		return nil, err
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFont, err)
	}
	return &fontEntry{name: name, source: src, face: src.Face(spec.size)}, nil
}
