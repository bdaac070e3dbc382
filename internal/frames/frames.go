// Package frames holds the canonical naming shared by the renamer output and the encoder input.
package frames

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	Prefix  = "frame_"
	Ext     = ".png"
	Pattern = Prefix + "%04d" + Ext
)

// First is the frame an encodable sequence must start with.
var First = Name(0)

func Name(i int) string {
	return fmt.Sprintf(Pattern, i)
}

// IsImage reports whether name carries one of the recognized image extensions.
// A leading dot starts a hidden name, not an extension: ".png" is not an image.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(strings.TrimPrefix(name, "."))) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".gif":
		return true
	default:
		return false
	}
}
