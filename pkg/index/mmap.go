package index

import (
	"errors"
	"os"

	"github.com/edsrzf/mmap-go"
)

var errEmptyFile = errors.New("empty file")

// mapFile maps path read-only. The file descriptor is not needed once the
// mapping exists.
func mapFile(path string) (mmap.MMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() == 0 {
		return nil, errEmptyFile
	}
	return mmap.Map(f, mmap.RDONLY, 0)
}
