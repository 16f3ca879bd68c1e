package lib

import (
	"os"
)

// LocalFileExists reports whether a path exists on the local filesystem.
func LocalFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || os.IsExist(err)
}
