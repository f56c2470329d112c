package render

import (
	"path/filepath"
	"strings"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
)

// Format is a rendered output format.
type Format string

// Supported formats.
const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Formats lists every supported format.
var Formats = []Format{FormatDOT, FormatSVG, FormatPNG}

// ParseFormat resolves a format name, with or without a leading dot.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(name, "."))); f {
	case FormatDOT, FormatSVG, FormatPNG:
		return f, nil
	case "gv":
		return FormatDOT, nil
	default:
		return "", nerrors.New(nerrors.ErrCodeUnsupported, "unsupported render format %q", name)
	}
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}

// Binary reports whether f is not printable text.
func (f Format) Binary() bool { return f == FormatPNG }
