package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlCodec_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.control")

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.FixedZone("", 0))
	want := &BackupRecord{
		ID:              BackupID(start.Unix()),
		Mode:            ModeDelta,
		Status:          StatusOK,
		TLI:             3,
		ParentID:        1740000000,
		StartLSN:        0x16000060,
		StopLSN:         0x16000120,
		StartTime:       start,
		DataBytes:       4096,
		WALBytes:        16777216,
		CompressAlg:     CompressZlib,
		CompressLevel:   6,
		Stream:          true,
		FromReplica:     false,
		ProgramVersion:  "2.5.0",
		ServerVersion:   "16.2",
		PrimaryConninfo: "host=10.0.0.1 user=repl",
		ExternalDirs:    []string{"/data/ext1", "/data/ext2"},
		Note:            "pre-migration backup",
	}

	require.NoError(t, WriteControl(path, want))
	got, err := ReadControl(path)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, want.Mode, got.Mode)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.TLI, got.TLI)
	assert.Equal(t, want.ParentID, got.ParentID)
	assert.Equal(t, want.StartLSN, got.StartLSN)
	assert.Equal(t, want.StopLSN, got.StopLSN)
	assert.True(t, want.StartTime.Equal(got.StartTime))
	assert.Equal(t, want.ID, got.ID, "id is derived purely from start-time, never read from a control key")
	assert.Equal(t, want.DataBytes, got.DataBytes)
	assert.Equal(t, want.WALBytes, got.WALBytes)
	assert.Equal(t, want.CompressAlg, got.CompressAlg)
	assert.Equal(t, want.CompressLevel, got.CompressLevel)
	assert.Equal(t, want.Stream, got.Stream)
	assert.Equal(t, want.ProgramVersion, got.ProgramVersion)
	assert.Equal(t, want.ServerVersion, got.ServerVersion)
	assert.Equal(t, want.PrimaryConninfo, got.PrimaryConninfo)
	assert.Equal(t, want.ExternalDirs, got.ExternalDirs)
	assert.Equal(t, want.Note, got.Note)
}

func TestReadControl_MissingFile(t *testing.T) {
	got, err := ReadControl(filepath.Join(t.TempDir(), "nope.control"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadControl_EmptyFileProducesAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.control")
	require.NoError(t, writeAtomic(path, []byte(""), 0o644))

	got, err := ReadControl(path)
	require.NoError(t, err)
	assert.Nil(t, got, "empty control file must produce absent, never a partial record")
}

func TestReadControl_UnknownKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.control")
	content := "mode = FULL\n" +
		"status = OK\n" +
		"start-time = '2025-06-01 10:00:00+00:00'\n" +
		"some-future-key = banana\n"
	require.NoError(t, writeAtomic(path, []byte(content), 0o644))

	got, err := ReadControl(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ModeFull, got.Mode)
	assert.Equal(t, StatusOK, got.Status)
}
