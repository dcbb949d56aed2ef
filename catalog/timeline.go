package catalog

import (
	"context"
	"sort"

	"golang.org/x/time/rate"
)

// walSuffixRank orders same-segno entries so that a plain segment sorts
// before its compressed twin, per the Open Question in spec.md §9: sorting
// by (segno, suffix) before scanning makes the duplicate-tolerance check
// order-independent.
func walSuffixRank(k WALNameKind) int {
	switch k {
	case WALNameSegment:
		return 0
	case WALNameCompressed:
		return 1
	case WALNamePartial:
		return 2
	case WALNameBackupHistory:
		return 3
	default:
		return 4
	}
}

// TimelineReconstructor scans an instance's WAL archive directory and
// rebuilds its timeline forest, per spec.md §4.6.
type TimelineReconstructor struct {
	FileOps       FileOps
	Location      Location
	HistoryParser HistoryParser
	WalSegSize    uint64
	Limiter       *rate.Limiter
	Logger        Logger
}

func (r *TimelineReconstructor) fileOps() FileOps {
	if r.FileOps != nil {
		return r.FileOps
	}
	return OSFileOps{}
}

func (r *TimelineReconstructor) historyParser() HistoryParser {
	if r.HistoryParser != nil {
		return r.HistoryParser
	}
	return &FileHistoryParser{FileOps: r.fileOps(), Location: r.Location}
}

func (r *TimelineReconstructor) logger() Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return NopLogger()
}

func (r *TimelineReconstructor) pace(ctx context.Context) {
	if r.Limiter == nil {
		return
	}
	_ = r.Limiter.Wait(ctx)
}

type parsedEntry struct {
	parsed ParsedWALName
	size   int64
}

// Reconstruct rebuilds the timeline forest for archiveDir and attaches
// backups (matched by BackupRecord.TLI). The returned slice is ordered by
// first appearance, matching spec.md §4.6's "a change of tli starts a new
// TimelineInfo (appended)".
func (r *TimelineReconstructor) Reconstruct(ctx context.Context, archiveDir string, backups []*BackupRecord) ([]*TimelineInfo, error) {
	r.pace(ctx)
	dirEntries, err := r.fileOps().ReadDir(r.Location, archiveDir)
	if err != nil {
		return nil, fatalf("Reconstruct: readdir "+archiveDir, err)
	}

	var segmentEntries []parsedEntry
	historyTLIs := map[TimelineID]bool{}

	for _, de := range dirEntries {
		if de.IsDir() || isDotEntry(de.Name()) {
			continue
		}
		p := ParseWALName(de.Name())
		switch p.Kind {
		case WALNameOther:
			r.logger().Warning("unrecognized WAL archive entry, skipping", "name", de.Name())
			continue
		case WALNameTimelineHistory:
			historyTLIs[p.TLI] = true
			continue
		}

		var size int64
		if p.Kind == WALNameSegment || p.Kind == WALNameCompressed {
			if info, ierr := de.Info(); ierr == nil {
				size = info.Size()
			}
		}
		segmentEntries = append(segmentEntries, parsedEntry{parsed: p, size: size})
	}

	sort.Slice(segmentEntries, func(i, j int) bool {
		a, b := segmentEntries[i].parsed, segmentEntries[j].parsed
		if a.TLI != b.TLI {
			return a.TLI < b.TLI
		}
		if a.Log != b.Log {
			return a.Log < b.Log
		}
		if a.Seg != b.Seg {
			return a.Seg < b.Seg
		}
		return walSuffixRank(a.Kind) < walSuffixRank(b.Kind)
	})

	var order []*TimelineInfo
	byTLI := map[TimelineID]*TimelineInfo{}
	seenAny := map[TimelineID]bool{}

	getOrCreate := func(tli TimelineID) *TimelineInfo {
		if t, ok := byTLI[tli]; ok {
			return t
		}
		t := &TimelineInfo{TLI: tli}
		byTLI[tli] = t
		order = append(order, t)
		return t
	}

	for _, e := range segmentEntries {
		t := getOrCreate(e.parsed.TLI)
		segno := e.parsed.SegNo(r.WalSegSize)

		if !seenAny[e.parsed.TLI] {
			t.BeginSegNo = segno
			t.EndSegNo = segno
			seenAny[e.parsed.TLI] = true
		} else {
			switch {
			case segno == t.EndSegNo:
				// duplicate compressed pair: no gap, no advance.
			case segno == t.EndSegNo+1:
				t.EndSegNo = segno
			default:
				t.LostSegments = append(t.LostSegments, SegInterval{Begin: t.EndSegNo + 1, End: segno - 1})
				t.EndSegNo = segno
			}
		}

		var fileType XlogFileType
		switch e.parsed.Kind {
		case WALNamePartial:
			fileType = XlogPartial
		case WALNameBackupHistory:
			fileType = XlogBackupHistory
		default:
			fileType = XlogSegment
		}
		if e.parsed.Kind == WALNameSegment || e.parsed.Kind == WALNameCompressed {
			t.NXlogFiles++
			t.Size += e.size
		}
		t.XlogFilelist = append(t.XlogFilelist, &XlogFile{
			SegNo: segno,
			Type:  fileType,
			Size:  e.size,
			Name:  e.parsed.Name,
		})
	}

	for tli := range historyTLIs {
		getOrCreate(tli)
	}

	for tli, t := range byTLI {
		entries, herr := r.historyParser().Parse(archiveDir, tli)
		if herr != nil {
			return nil, herr
		}
		if len(entries) >= 2 {
			t.ParentTLI = entries[1].TLI
			t.Switchpoint = entries[1].EndLSN
			t.ParentLink = getOrCreate(entries[1].TLI)
		}
	}

	for _, b := range backups {
		t, ok := byTLI[b.TLI]
		if !ok {
			r.logger().Warning("backup references a timeline with no WAL entries", "backup", b.ID, "tli", b.TLI)
			continue
		}
		t.Backups = append(t.Backups, b)
	}

	for _, t := range order {
		t.OldestBackup = oldestValidBackup(t.Backups)
		t.ClosestBackup = closestBackupOnParentChain(t)
	}

	return order, nil
}

// oldestValidBackup returns the valid backup with the smallest StartLSN.
func oldestValidBackup(backups []*BackupRecord) *BackupRecord {
	var best *BackupRecord
	for _, b := range backups {
		if !b.IsValid() {
			continue
		}
		if best == nil || b.StartLSN < best.StartLSN {
			best = b
		}
	}
	return best
}

// closestBackupOnParentChain finds, walking t's ancestor chain, the valid
// backup with the greatest StopLSN <= t.Switchpoint, per spec.md §4.6: "taken
// from the parent chain, not the timeline itself".
func closestBackupOnParentChain(t *TimelineInfo) *BackupRecord {
	for anc := t.ParentLink; anc != nil; anc = anc.ParentLink {
		var best *BackupRecord
		for _, b := range anc.Backups {
			if !b.IsValid() || b.StopLSN > t.Switchpoint {
				continue
			}
			if best == nil || b.StopLSN > best.StopLSN {
				best = b
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}
