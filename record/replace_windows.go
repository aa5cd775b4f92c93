package record

import (
	"io/fs"
	"os"
)

// renameio has no Windows support; fall back to a plain rewrite.
func replaceFile(path string, data []byte, mode fs.FileMode) error {
	return os.WriteFile(path, data, mode)
}
