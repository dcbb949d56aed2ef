package catalog

import (
	"context"
	"path/filepath"
	"sort"

	"golang.org/x/time/rate"
)

// Enumerator lists instances and backups under a catalog root. FileOps and
// Limiter are both optional: a nil FileOps falls back to OSFileOps, and a
// nil Limiter performs no pacing. The Limiter is paced per spec.md §4.6/§4.4
// directory scans, adapted from the teacher's HTTP rate-limiter middleware
// applied here to filesystem calls instead (useful when the catalog root is
// network-backed storage).
type Enumerator struct {
	CatalogRoot string
	FileOps     FileOps
	Location    Location
	Limiter     *rate.Limiter
	Logger      Logger
}

func (e *Enumerator) fileOps() FileOps {
	if e.FileOps != nil {
		return e.FileOps
	}
	return OSFileOps{}
}

func (e *Enumerator) logger() Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return NopLogger()
}

func (e *Enumerator) pace(ctx context.Context) {
	if e.Limiter == nil {
		return
	}
	_ = e.Limiter.Wait(ctx)
}

// ListInstances lists the immediate subdirectories of {catalogRoot}/backups.
// Regular files and dot-entries are skipped; an empty result is a warning,
// not an error, per spec.md §4.4.
func (e *Enumerator) ListInstances(ctx context.Context) ([]string, error) {
	base := filepath.ToSlash(filepath.Join(e.CatalogRoot, backupsDir))
	e.pace(ctx)
	entries, err := e.fileOps().ReadDir(e.Location, base)
	if err != nil {
		return nil, fatalf("ListInstances: readdir "+base, err)
	}

	var instances []string
	for _, de := range entries {
		if !de.IsDir() || isDotEntry(de.Name()) {
			continue
		}
		instances = append(instances, de.Name())
	}
	if len(instances) == 0 {
		e.logger().Warning("no instances found under catalog root", "path", base)
	}
	return instances, nil
}

// ListBackups lists backups for instanceName, sorted descending by id, with
// parent_link resolved for every non-FULL record. filterID, if nonzero,
// restricts the result to that single id. Per spec.md §4.4, a backup
// directory whose control file is missing or invalid still yields a
// placeholder record (id decoded from the directory name, status INVALID)
// so purging logic can see it.
func (e *Enumerator) ListBackups(ctx context.Context, instanceName string, filterID BackupID) ([]*BackupRecord, error) {
	instPath, err := InstancePath(e.CatalogRoot, instanceName)
	if err != nil {
		return nil, err
	}

	e.pace(ctx)
	entries, err := e.fileOps().ReadDir(e.Location, instPath)
	if err != nil {
		return nil, fatalf("ListBackups: readdir "+instPath, err)
	}

	var backups []*BackupRecord
	for _, de := range entries {
		if !de.IsDir() || isDotEntry(de.Name()) {
			continue
		}

		dirID, idErr := ParseBackupID(de.Name())
		controlPath := filepath.ToSlash(filepath.Join(instPath, de.Name(), BackupControlFile))

		b, rerr := ReadControl(controlPath)
		if rerr != nil {
			return nil, rerr
		}
		if b == nil {
			// Missing or unreadable control file: emit a minimal
			// placeholder so purging logic still sees this directory.
			e.logger().Warning("backup control file missing or invalid, using placeholder", "path", controlPath)
			if idErr != nil {
				e.logger().Warning("backup directory name is not a valid id, skipping", "name", de.Name())
				continue
			}
			b = &BackupRecord{ID: dirID, Status: StatusInvalid}
		} else if idErr == nil && b.ID != dirID {
			e.logger().Warning("backup control id disagrees with directory name, directory wins",
				"control_id", b.ID, "dir", de.Name())
			b.ID = dirID
		}

		if idErr != nil && b.ID == 0 {
			b.ID = dirID
		}

		if filterID != 0 && b.ID != filterID {
			continue
		}
		backups = append(backups, b)
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].ID > backups[j].ID })

	resolveParentLinks(backups)
	return backups, nil
}

// resolveParentLinks wires ParentLink for every non-FULL record in a
// descending-by-id list, via binary search, per spec.md §4.4.
func resolveParentLinks(backups []*BackupRecord) {
	for _, b := range backups {
		if b.IsFull() || b.ParentID == 0 {
			continue
		}
		// backups is sorted descending by ID; sort.Search wants ascending,
		// so search on the negated predicate.
		idx := sort.Search(len(backups), func(i int) bool { return backups[i].ID <= b.ParentID })
		if idx < len(backups) && backups[idx].ID == b.ParentID {
			b.ParentLink = backups[idx]
		}
	}
}
