package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
)

// dirEntryBytes is the per-directory-entry size added to both data_bytes and
// uncompressed_bytes, per spec.md §4.2.
const dirEntryBytes = 4096

// POSIX st_mode file-type bits, used to tell directories and regular files
// apart in a FileListEntry.Mode the same way the original's S_ISDIR/S_ISREG
// macros do.
const (
	modeTypeMask = 0o170000
	modeDir      = 0o040000
	modeReg      = 0o100000
)

func isDirMode(mode uint32) bool { return mode&modeTypeMask == modeDir }
func isRegMode(mode uint32) bool { return mode&modeTypeMask == modeReg }

// flushThreshold is the spec.md §4.2 file-list buffer size (~250 KiB).
// WriteFileList does not use it: it encodes the whole list into memory and
// writes it atomically in one shot. ReadFileList uses four times this value
// as its maximum line length.
const flushThreshold = 250 * 1024

// FileListEntry is one record of a backup's file list (backup_content.control).
type FileListEntry struct {
	Path           string `json:"path"`
	Size           int64  `json:"size"`
	Mode           uint32 `json:"mode"`
	IsDatafile     bool   `json:"is_datafile"`
	IsCFS          bool   `json:"is_cfs"`
	CRC            uint32 `json:"crc"`
	CompressAlg    string `json:"compress_alg,omitempty"`
	ExternalDirNum int    `json:"external_dir_num"`
	DBOid          uint32 `json:"dbOid,omitempty"`
	SegNo          *SegNo `json:"segno,omitempty"`
	Linked         string `json:"linked,omitempty"`
	NBlocks        *int   `json:"n_blocks,omitempty"`
}

// WriteFileList serializes entries as newline-delimited JSON objects to path
// atomically, and recomputes b.DataBytes, b.WALBytes and b.UncompressedBytes
// as a side effect, per spec.md §4.2.
func WriteFileList(path string, entries []FileListEntry, b *BackupRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	var dataBytes, walBytes, uncompressedBytes int64
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}

		switch {
		case isDirMode(e.Mode):
			dataBytes += dirEntryBytes
			uncompressedBytes += dirEntryBytes
		case isRegMode(e.Mode) && e.Size > 0:
			if e.ExternalDirNum == 0 && IsXlogFile(e.Path) {
				walBytes += e.Size
			} else {
				dataBytes += e.Size
				uncompressedBytes += e.Size
			}
		}
	}

	if b != nil {
		b.DataBytes = dataBytes
		b.WALBytes = walBytes
		b.UncompressedBytes = uncompressedBytes
	}

	return writeAtomic(path, buf.Bytes(), 0o644)
}

// ReadFileList reads a backup_content.control file. The grammar fixes key
// order on write but the reader does not depend on it.
func ReadFileList(path string) ([]FileListEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fatalf("ReadFileList: open "+path, err)
	}
	defer f.Close()

	var entries []FileListEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), flushThreshold*4)
	for sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e FileListEntry
		if err := json.Unmarshal(line, &e); err != nil {
			// malformed line: parse/schema error, skip with a warning left
			// to the caller (ReadFileList itself stays pure).
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fatalf("ReadFileList: scan "+path, err)
	}
	return entries, nil
}
