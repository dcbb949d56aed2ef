package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func segAt(n uint64) SegNo { return SegNo(n) }

func TestPlanRetention_WalDepthZero_NoOp(t *testing.T) {
	t1 := &TimelineInfo{
		TLI: 1,
		Backups: []*BackupRecord{
			{ID: 3, Mode: ModeFull, Status: StatusOK, TLI: 1, StartLSN: 300, StopLSN: 310},
		},
		XlogFilelist: []*XlogFile{{SegNo: segAt(1)}, {SegNo: segAt(2)}},
	}
	PlanRetention([]*TimelineInfo{t1}, 0, testWalSegSize, NopLogger())

	assert.Equal(t, LSN(0), t1.AnchorLSN)
	for _, f := range t1.XlogFilelist {
		assert.False(t, f.Keep)
	}
}

func TestPlanRetention_AnchorWithinTimeline(t *testing.T) {
	// Three valid backups L3 > L2 > L1 (descending start_lsn); wal_depth=2
	// should anchor at L2 and keep an ARCHIVE interval for L1.
	walSegSize := uint64(16 * 1024 * 1024)
	l1Start, l1Stop := LSN(1*walSegSize), LSN(1*walSegSize+100)
	l2Start := LSN(2 * walSegSize)
	l3Start := LSN(3 * walSegSize)

	b1 := &BackupRecord{ID: 100, Mode: ModeFull, Status: StatusOK, TLI: 1, StartLSN: l1Start, StopLSN: l1Stop}
	b2 := &BackupRecord{ID: 200, Mode: ModeDelta, Status: StatusOK, TLI: 1, StartLSN: l2Start, ParentID: 100}
	b3 := &BackupRecord{ID: 300, Mode: ModeDelta, Status: StatusOK, TLI: 1, StartLSN: l3Start, ParentID: 200}

	t1 := &TimelineInfo{
		TLI:     1,
		Backups: []*BackupRecord{b3, b2, b1}, // descending by id, matches descending start_lsn
		XlogFilelist: []*XlogFile{
			{SegNo: segAt(0)},
			{SegNo: segAt(1)},
			{SegNo: segAt(2)}, // == anchor segno
			{SegNo: segAt(3)},
		},
	}

	PlanRetention([]*TimelineInfo{t1}, 2, walSegSize, NopLogger())

	assert.Equal(t, l2Start, t1.AnchorLSN)
	assert.EqualValues(t, 1, t1.AnchorTLI)

	for _, f := range t1.XlogFilelist {
		switch f.SegNo {
		case segAt(0):
			assert.False(t, f.Keep, "segno %d below anchor and outside any keep interval", f.SegNo)
		case segAt(1):
			assert.True(t, f.Keep, "segno %d is inside L1's ARCHIVE keep interval", f.SegNo)
		case segAt(2), segAt(3):
			assert.True(t, f.Keep, "segno %d is at/after the anchor", f.SegNo)
		}
	}

	assert.Len(t, t1.KeepSegments, 1)
	assert.Equal(t, SegInterval{Begin: SegNoOf(l1Start, walSegSize), End: SegNoOf(l1Stop, walSegSize)}, t1.KeepSegments[0])
}

func TestPlanRetention_BranchingFallback(t *testing.T) {
	walSegSize := uint64(16 * 1024 * 1024)
	switchLSN := LSN(3 * walSegSize)
	bStart, bStop := LSN(1*walSegSize), LSN(1*walSegSize+100)

	b := &BackupRecord{ID: 100, Mode: ModeFull, Status: StatusOK, TLI: 1, StartLSN: bStart, StopLSN: bStop}

	t1 := &TimelineInfo{
		TLI:        1,
		BeginSegNo: 0,
		Backups:    []*BackupRecord{b},
	}
	t2 := &TimelineInfo{
		TLI:         2,
		ParentTLI:   1,
		ParentLink:  t1,
		Switchpoint: switchLSN,
		Backups:     nil, // zero valid backups on timeline 2 itself
	}
	t2.ClosestBackup = closestBackupOnParentChain(t2)

	PlanRetention([]*TimelineInfo{t1, t2}, 1, walSegSize, NopLogger())

	assert.Equal(t, bStart, t2.AnchorLSN)
	assert.EqualValues(t, 1, t2.AnchorTLI)
	assert.NotEqual(t, t2.TLI, t2.AnchorTLI, "timeline 2 is protected by its ancestor, not marked itself")

	assert.Len(t, t1.KeepSegments, 1)
	assert.Equal(t, SegNoOf(bStart, walSegSize), t1.KeepSegments[0].Begin)
	assert.Equal(t, SegNoOf(switchLSN, walSegSize), t1.KeepSegments[0].End)
}
