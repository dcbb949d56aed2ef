package catalog

// ScanParentChain walks b's ParentLink chain to the root FULL backup,
// classifying its health per spec.md §4.5:
//
//   - ChainBroken: the walk terminates before reaching a FULL backup (some
//     ancestor's ParentLink is unresolved); witness is that ancestor.
//   - ChainInvalid: the chain is fully linked down to FULL, but the oldest
//     (most distant from b) non-OK/DONE ancestor seen is returned as witness
//     (this includes the FULL itself being invalid).
//   - ChainOK: fully linked and every ancestor, including FULL, is OK/DONE;
//     witness is the FULL backup.
func ScanParentChain(b *BackupRecord) (ChainCode, *BackupRecord) {
	var invalidBackup *BackupRecord
	cur := b
	for {
		if !cur.IsValid() {
			invalidBackup = cur // keep overwriting: last write wins = oldest seen
		}
		if cur.IsFull() {
			if invalidBackup != nil {
				return ChainInvalid, invalidBackup
			}
			return ChainOK, cur
		}
		if cur.ParentLink == nil {
			return ChainBroken, cur
		}
		cur = cur.ParentLink
	}
}

// FindParentFullBackup walks b's ParentLink chain to its end and returns
// that record only if it is a FULL backup; otherwise nil (the chain is
// broken before reaching one).
func FindParentFullBackup(b *BackupRecord) *BackupRecord {
	cur := b
	for cur.ParentLink != nil {
		cur = cur.ParentLink
	}
	if cur.IsFull() {
		return cur
	}
	return nil
}

// IsParent reports whether parentID appears among child's ancestors
// (walking ParentLink). If inclusive, child.ID == parentID also counts.
func IsParent(parentID BackupID, child *BackupRecord, inclusive bool) bool {
	if inclusive && child.ID == parentID {
		return true
	}
	for cur := child; cur.ParentLink != nil; cur = cur.ParentLink {
		if cur.ParentLink.ID == parentID {
			return true
		}
	}
	return false
}

// GetLastDataBackup returns the latest valid descendant of the latest valid
// FULL backup on tli, per spec.md §4.5. list must be sorted descending by
// id. currentID, if set, is skipped silently (it names the backup currently
// being processed by the caller, not a candidate). ok is false if no
// eligible FULL backup exists on tli.
func GetLastDataBackup(list []*BackupRecord, tli TimelineID, currentID BackupID, logger Logger) (result *BackupRecord, ok bool) {
	if logger == nil {
		logger = NopLogger()
	}

	var full *BackupRecord
	for _, b := range list {
		if b.IsFull() && b.IsValid() && b.TLI == tli {
			full = b
			break
		}
	}
	if full == nil {
		return nil, false
	}

	for _, candidate := range list {
		if candidate.ID == currentID {
			continue
		}
		if !candidate.IsValid() {
			continue
		}
		code, witness := ScanParentChain(candidate)
		switch code {
		case ChainBroken:
			logger.Warning("backup chain is broken", "backup", candidate.ID, "missing_parent", witness.ParentID)
			continue
		case ChainInvalid:
			logger.Warning("backup chain contains an invalid ancestor", "backup", candidate.ID, "invalid_ancestor", witness.ID)
			continue
		}
		if IsParent(full.ID, candidate, true) {
			return candidate, true
		}
	}
	return nil, false
}

// IsProlific reports whether at least two valid backups in list reference
// target.ID as their parent.
func IsProlific(list []*BackupRecord, target *BackupRecord) bool {
	count := 0
	for _, b := range list {
		if b.IsValid() && b.ParentID == target.ID {
			count++
			if count >= 2 {
				return true
			}
		}
	}
	return false
}

// FindProlificBackups returns every backup in list that IsProlific reports
// true for. This supplements spec.md's per-backup IsProlific with a
// whole-catalog scan, grounded on original_source/src/catalog.c's
// is_prolific being invoked in a loop over the backup list (see SPEC_FULL.md
// §5).
func FindProlificBackups(list []*BackupRecord) []*BackupRecord {
	var prolific []*BackupRecord
	for _, b := range list {
		if IsProlific(list, b) {
			prolific = append(prolific, b)
		}
	}
	return prolific
}
