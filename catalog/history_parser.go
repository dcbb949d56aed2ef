package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// FileHistoryParser is the default HistoryParser: it reads
// {archiveDir}/{tli:08X}.history through a FileOps and parses PostgreSQL's
// timeline-history grammar, one entry per line:
//
//	parentTLI<tab>switchpointLSN<tab>reason
//
// Blank lines and lines beginning with '#' are ignored. Per spec.md §4.6, the
// entry at index 1 of the returned slice names the immediate parent and its
// switchpoint; index 0 is a synthetic entry for tli itself so callers can
// address "this timeline's own row" uniformly.
type FileHistoryParser struct {
	FileOps  FileOps
	Location Location
}

var _ HistoryParser = (*FileHistoryParser)(nil)

// Parse reads and parses tli's .history file. A missing file is not an
// error: a brand-new timeline (e.g. timeline 1) has none, and Parse returns
// a single synthetic self-entry.
func (p *FileHistoryParser) Parse(archiveDir string, tli TimelineID) ([]HistoryEntry, error) {
	self := HistoryEntry{TLI: tli}
	fops := p.FileOps
	if fops == nil {
		fops = OSFileOps{}
	}

	path := filepath.ToSlash(filepath.Join(archiveDir, HistoryFileName(tli)))
	data, err := fops.ReadFile(p.Location, path)
	if err != nil {
		return []HistoryEntry{self}, nil
	}

	entries := []HistoryEntry{self}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		parentTLI, err := parseHistoryTLI(fields[0])
		if err != nil {
			continue
		}
		lsn, err := ParseLSN(fields[1])
		if err != nil {
			continue
		}
		entries = append(entries, HistoryEntry{TLI: parentTLI, EndLSN: lsn})
	}
	if err := sc.Err(); err != nil {
		return nil, fatalf("HistoryParser.Parse: scan "+path, err)
	}

	// The file lists ancestors oldest first; reverse the parsed lines so the
	// immediate parent sits at index 1, right after the self-entry.
	for i, j := 1, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	// BeginLSN of each entry is the EndLSN of the next (older) entry, the
	// switchpoint it was born at; the oldest entry and the synthetic
	// self-entry have no begin.
	for i := 1; i+1 < len(entries); i++ {
		entries[i].BeginLSN = entries[i+1].EndLSN
	}
	return entries, nil
}

func parseHistoryTLI(s string) (TimelineID, error) {
	var v uint32
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, err
	}
	return TimelineID(v), nil
}
