//go:build !unix

package gla

import (
	"errors"
	"os"
)

var errMmapUnsupported = errors.New("mmap unsupported")

func mapFile(*os.File, int) ([]byte, func() error, error) {
	return nil, nil, errMmapUnsupported
}
