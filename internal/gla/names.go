package gla

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Name encodings accepted by Options.NameEncoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingLatin1      = "iso-8859-1"
)

// nameDecoder turns a nul-trimmed name field into a Go string.
type nameDecoder func([]byte) (string, error)

func newNameDecoder(encoding string) (nameDecoder, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8, "utf8":
		return func(b []byte) (string, error) { return string(b), nil }, nil
	case EncodingWindows1252, "cp1252":
		return charmapDecoder(charmap.Windows1252), nil
	case EncodingLatin1, "latin1":
		return charmapDecoder(charmap.ISO8859_1), nil
	default:
		return nil, fmt.Errorf("gla: unsupported name encoding %q", encoding)
	}
}

func charmapDecoder(cm *charmap.Charmap) nameDecoder {
	return func(b []byte) (string, error) {
		out, err := cm.NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("gla: decode name: %w", err)
		}
		return string(out), nil
	}
}
