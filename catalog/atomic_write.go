package catalog

import (
	"fmt"
	"os"
)

// writeAtomic writes data to path via a ".tmp" sibling, fsyncs it, closes it,
// and renames it over path. On any failure before the rename it unlinks the
// temp file and returns a *FatalError, per spec.md §4.2/§9: "write to
// path.tmp, flush, close, rename to path; on any error before the rename,
// unlink .tmp. The rename is the linearization point."
//
// Grounded on the teacher's internal/xlog/receivelog.go
// writeTimeLineHistoryFile and internal/xlog/walfile.go closeAndRename.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fatalf("writeAtomic: create "+tmpPath, err)
	}

	n, werr := f.Write(data)
	if werr == nil && n != len(data) {
		werr = fmt.Errorf("short write: wrote %d of %d bytes", n, len(data))
	}
	if werr != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fatalf("writeAtomic: write "+tmpPath, werr)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fatalf("writeAtomic: fsync "+tmpPath, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fatalf("writeAtomic: close "+tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fatalf("writeAtomic: rename "+tmpPath+" -> "+path, err)
	}

	return nil
}
