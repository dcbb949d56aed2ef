package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxPathLen bounds every path this package constructs, matching spec.md
// §4.1's "implementation-defined maximum (>=1024)".
const MaxPathLen = 4096

const (
	backupsDir = "backups"
	walDir     = "wal"

	// BackupControlFile is the control-record file name within a backup dir.
	BackupControlFile = "backup.control"
	// BackupContentFile is the file-list record file name within a backup dir.
	BackupContentFile = "backup_content.control"
	// BackupLockFile is the per-backup lock file name.
	BackupLockFile = "backup.pid"
	// DatabaseSubdir holds the copied data directory tree.
	DatabaseSubdir = "database"
	// ExternalDirsSubdir holds external tablespace/directory copies.
	ExternalDirsSubdir = "external_directories"
)

// InstancePath returns {catalogRoot}/backups/{instanceName}.
func InstancePath(catalogRoot, instanceName string) (string, error) {
	p := filepath.ToSlash(filepath.Join(catalogRoot, backupsDir, instanceName))
	return boundedPath(p)
}

// BackupPath returns {catalogRoot}/backups/{instanceName}/{base36(id)}/sub...
func BackupPath(catalogRoot, instanceName string, id BackupID, sub ...string) (string, error) {
	instPath, err := InstancePath(catalogRoot, instanceName)
	if err != nil {
		return "", err
	}
	parts := append([]string{instPath, id.String()}, sub...)
	p := filepath.ToSlash(filepath.Join(parts...))
	return boundedPath(p)
}

// WALPath returns {catalogRoot}/wal/{instanceName}, the WAL archive directory.
func WALPath(catalogRoot, instanceName string) (string, error) {
	p := filepath.ToSlash(filepath.Join(catalogRoot, walDir, instanceName))
	return boundedPath(p)
}

func boundedPath(p string) (string, error) {
	if len(p) > MaxPathLen {
		return "", fmt.Errorf("catalog: path exceeds maximum length %d: %.40s...", MaxPathLen, p)
	}
	return p, nil
}

// isDotEntry reports whether name is "." or ".." or starts with a dot, the
// entries ListInstances/ListBackups must skip.
func isDotEntry(name string) bool {
	return strings.HasPrefix(name, ".")
}
