package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupID_RoundTrip(t *testing.T) {
	tests := []uint64{0, 1, 35, 36, 1234567890, 1750000000}
	for _, x := range tests {
		id := BackupID(x)
		parsed, err := ParseBackupID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}

func TestParseBackupID_Invalid(t *testing.T) {
	tests := []string{"", "!!!", "12_34"}
	for _, s := range tests {
		_, err := ParseBackupID(s)
		assert.Error(t, err)
	}
}

func TestSegNo_LogSegRoundTrip(t *testing.T) {
	const walSegSize = 16 * 1024 * 1024
	tests := []struct {
		log, seg uint32
	}{
		{0, 0}, {0, 1}, {1, 0}, {0xFF, 0xAB},
	}
	for _, tt := range tests {
		segno := SegNoFromLogSeg(tt.log, tt.seg, walSegSize)
		gotLog, gotSeg := segno.LogSeg(walSegSize)
		assert.Equal(t, tt.log, gotLog)
		assert.Equal(t, tt.seg, gotSeg)
	}
}

func TestSegmentFileName(t *testing.T) {
	const walSegSize = 16 * 1024 * 1024
	name := SegmentFileName(1, SegNoFromLogSeg(0, 3, walSegSize), walSegSize)
	assert.Equal(t, "000000010000000000000003", name)
}

func TestHistoryFileName(t *testing.T) {
	assert.Equal(t, "00000002.history", HistoryFileName(2))
}
