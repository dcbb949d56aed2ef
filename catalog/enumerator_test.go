package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkBackupDir(t *testing.T, root, instance string, id BackupID, rec *BackupRecord) {
	t.Helper()
	dir, err := BackupPath(root, instance, id)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if rec != nil {
		rec.ID = id
		require.NoError(t, WriteControl(filepath.Join(dir, BackupControlFile), rec))
	}
}

func TestEnumerator_ListInstances(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "backups", "pg1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "backups", "pg2"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "backups", "notadir"), []byte("x"), 0o644))

	e := &Enumerator{CatalogRoot: root, Logger: NopLogger()}
	instances, err := e.ListInstances(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pg1", "pg2"}, instances)
}

func TestEnumerator_ListBackups_DescendingAndParentLinks(t *testing.T) {
	root := t.TempDir()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mkBackupDir(t, root, "pg1", 100, &BackupRecord{Mode: ModeFull, Status: StatusOK, TLI: 1, StartTime: start})
	mkBackupDir(t, root, "pg1", 200, &BackupRecord{Mode: ModeDelta, Status: StatusOK, TLI: 1, ParentID: 100, StartTime: start})
	mkBackupDir(t, root, "pg1", 300, &BackupRecord{Mode: ModeDelta, Status: StatusOK, TLI: 1, ParentID: 200, StartTime: start})

	e := &Enumerator{CatalogRoot: root, Logger: NopLogger()}
	backups, err := e.ListBackups(context.Background(), "pg1", 0)
	require.NoError(t, err)
	require.Len(t, backups, 3)

	assert.Equal(t, BackupID(300), backups[0].ID)
	assert.Equal(t, BackupID(200), backups[1].ID)
	assert.Equal(t, BackupID(100), backups[2].ID)

	require.NotNil(t, backups[0].ParentLink)
	assert.Equal(t, BackupID(200), backups[0].ParentLink.ID)
	require.NotNil(t, backups[1].ParentLink)
	assert.Equal(t, BackupID(100), backups[1].ParentLink.ID)
	assert.Nil(t, backups[2].ParentLink)
}

func TestEnumerator_ListBackups_PlaceholderForMissingControl(t *testing.T) {
	root := t.TempDir()
	mkBackupDir(t, root, "pg1", 400, nil) // directory with no control file at all

	e := &Enumerator{CatalogRoot: root, Logger: NopLogger()}
	backups, err := e.ListBackups(context.Background(), "pg1", 0)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, BackupID(400), backups[0].ID)
	assert.Equal(t, StatusInvalid, backups[0].Status)
}

func TestEnumerator_ListBackups_FilterByID(t *testing.T) {
	root := t.TempDir()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mkBackupDir(t, root, "pg1", 100, &BackupRecord{Mode: ModeFull, Status: StatusOK, StartTime: start})
	mkBackupDir(t, root, "pg1", 200, &BackupRecord{Mode: ModeDelta, Status: StatusOK, ParentID: 100, StartTime: start})

	e := &Enumerator{CatalogRoot: root, Logger: NopLogger()}
	backups, err := e.ListBackups(context.Background(), "pg1", 200)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, BackupID(200), backups[0].ID)
}
