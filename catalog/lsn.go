package catalog

import (
	"github.com/jackc/pglogrepl"
)

// LSN is a 64-bit monotonic write-ahead-log position. Zero is the invalid
// sentinel. Rendering and parsing are delegated to pglogrepl.LSN, which
// already implements the "%X/%X" form spec.md requires.
type LSN = pglogrepl.LSN

// InvalidLSN is the sentinel LSN value.
const InvalidLSN LSN = 0

// ParseLSN parses the "%X/%X" external form of an LSN.
func ParseLSN(s string) (LSN, error) {
	return pglogrepl.ParseLSN(s)
}

// SegNoOf converts an LSN to the flat segment number containing it, given the
// instance's WAL segment size (PostgreSQL's XLByteToSeg).
func SegNoOf(lsn LSN, walSegSize uint64) SegNo {
	return SegNo(uint64(lsn) / walSegSize)
}
