//go:build !windows

package record

import (
	"io/fs"

	"github.com/google/renameio/v2"
)

func replaceFile(path string, data []byte, mode fs.FileMode) error {
	return renameio.WriteFile(path, data, mode, renameio.IgnoreUmask())
}
