package catalog

import "sort"

// PlanRetention runs the wal-depth retention algorithm of spec.md §4.7 over
// timelines, which must already have backups attached and parent/switchpoint
// links resolved (catalog.TimelineReconstructor.Reconstruct does this).
// walDepth <= 0 skips planning entirely: every XlogFile.Keep stays false and
// every TimelineInfo.AnchorLSN stays zero.
func PlanRetention(timelines []*TimelineInfo, walDepth int, walSegSize uint64, logger Logger) {
	if logger == nil {
		logger = NopLogger()
	}
	if walDepth <= 0 {
		return
	}

	for _, t := range timelines {
		planAnchor(t, walDepth, walSegSize, logger)
	}
	for _, t := range timelines {
		markKeep(t, walSegSize)
	}
}

// planAnchor implements §4.7 steps 1-3 for a single timeline.
func planAnchor(t *TimelineInfo, walDepth int, walSegSize uint64, logger Logger) {
	descByStart := append([]*BackupRecord(nil), t.Backups...)
	sort.Slice(descByStart, func(i, j int) bool { return descByStart[i].StartLSN > descByStart[j].StartLSN })

	anchorIdx := -1
	count := 0
	for i, b := range descByStart {
		if !b.IsValid() || b.TLI == 0 || b.StartLSN == InvalidLSN {
			continue
		}
		count++
		if count == walDepth {
			t.AnchorLSN = b.StartLSN
			t.AnchorTLI = b.TLI
			anchorIdx = i
			break
		}
	}

	if anchorIdx < 0 {
		// Step 2: fallback via parent chain.
		if t.ClosestBackup == nil {
			return
		}
		closest := t.ClosestBackup
		t.AnchorLSN = closest.StartLSN
		t.AnchorTLI = closest.TLI

		child := t
		p := t.ParentLink
		for p != nil {
			switchSegno := SegNoOf(child.Switchpoint, walSegSize)
			if p.TLI != closest.TLI {
				p.KeepSegments = append(p.KeepSegments, SegInterval{Begin: p.BeginSegNo, End: switchSegno})
				child = p
				p = p.ParentLink
				continue
			}
			begin := SegNoOf(closest.StartLSN, walSegSize)
			p.KeepSegments = append(p.KeepSegments, SegInterval{Begin: begin, End: switchSegno})
			break
		}
		return
	}

	// Step 3: keep intervals for older ARCHIVE backups past the anchor.
	for _, b := range descByStart[anchorIdx+1:] {
		if !b.IsValid() || b.Stream || b.StartLSN >= t.AnchorLSN {
			continue
		}
		begin := SegNoOf(b.StartLSN, walSegSize)
		end := SegNoOf(b.StopLSN, walSegSize)
		if b.FromReplica {
			end++
		}
		t.KeepSegments = append(t.KeepSegments, SegInterval{Begin: begin, End: end})
	}
}

// markKeep implements §4.7 step 4 for a single timeline.
func markKeep(t *TimelineInfo, walSegSize uint64) {
	if t.AnchorLSN == InvalidLSN {
		return
	}
	if t.AnchorTLI != t.TLI {
		// The whole timeline is covered by an ancestor's keep interval.
		return
	}
	anchorSegno := SegNoOf(t.AnchorLSN, walSegSize)
	for _, f := range t.XlogFilelist {
		if f.SegNo >= anchorSegno {
			f.Keep = true
			continue
		}
		for _, iv := range t.KeepSegments {
			if iv.Contains(f.SegNo) {
				f.Keep = true
				break
			}
		}
	}
}
