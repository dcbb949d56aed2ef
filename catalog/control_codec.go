package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const controlTimeLayout = "2006-01-02 15:04:05-07:00"

// WriteControl serializes b as key=value lines in the fixed section order of
// spec.md §4.2 (configuration, compatibility, result) and writes it to path
// atomically (temp file, fsync, rename). Optional fields at their sentinel
// value are omitted.
func WriteControl(path string, b *BackupRecord) error {
	var buf bytes.Buffer
	w := func(format string, args ...any) { fmt.Fprintf(&buf, format+"\n", args...) }

	// configuration
	w("mode = %s", DeparseBackupMode(b.Mode))
	w("stream = %t", b.Stream)
	w("compress-alg = %s", DeparseCompressAlg(b.CompressAlg))
	if b.CompressLevel != 0 {
		w("compress-level = %d", b.CompressLevel)
	}
	w("from-replica = %t", b.FromReplica)

	// compatibility
	if b.BlockSize != 0 {
		w("block-size = %d", b.BlockSize)
	}
	if b.WALBlockSize != 0 {
		w("xlog-block-size = %d", b.WALBlockSize)
	}
	if b.ChecksumVersion != 0 {
		w("checksum-version = %d", b.ChecksumVersion)
	}
	if b.ProgramVersion != "" {
		w("program-version = %s", b.ProgramVersion)
	}
	if b.ServerVersion != "" {
		w("server-version = %s", b.ServerVersion)
	}

	// result
	w("timelineid = %d", uint32(b.TLI))
	if b.StartLSN != InvalidLSN {
		w("start-lsn = %s", b.StartLSN)
	}
	if b.StopLSN != InvalidLSN {
		w("stop-lsn = %s", b.StopLSN)
	}
	w("start-time = '%s'", b.StartTime.Format(controlTimeLayout))
	if !b.MergeTime.IsZero() {
		w("merge-time = '%s'", b.MergeTime.Format(controlTimeLayout))
	}
	if !b.EndTime.IsZero() {
		w("end-time = '%s'", b.EndTime.Format(controlTimeLayout))
	}
	if b.RecoveryXID != 0 {
		w("recovery-xid = %d", b.RecoveryXID)
	}
	if !b.RecoveryTime.IsZero() {
		w("recovery-time = '%s'", b.RecoveryTime.Format(controlTimeLayout))
	}
	w("data-bytes = %d", b.DataBytes)
	w("wal-bytes = %d", b.WALBytes)
	if b.UncompressedBytes != 0 {
		w("uncompressed-bytes = %d", b.UncompressedBytes)
	}
	if b.PGDataBytes != 0 {
		w("pgdata-bytes = %d", b.PGDataBytes)
	}
	w("status = %s", b.Status)
	if b.ParentID != 0 {
		w("parent-backup-id = %s", b.ParentID)
	}
	if b.PrimaryConninfo != "" {
		w("primary_conninfo = '%s'", b.PrimaryConninfo)
	}
	if len(b.ExternalDirs) > 0 {
		w("external-dirs = '%s'", strings.Join(b.ExternalDirs, ":"))
	}
	if b.Note != "" {
		w("note = '%s'", b.Note)
	}

	return writeAtomic(path, buf.Bytes(), 0o644)
}

// ReadControl reads and permissively parses a backup.control file. Unknown
// keys are ignored. A missing file, or a record missing start-time, returns
// (nil, nil) per spec.md §4.2 ("returns absent"); log a warning via the
// caller's Logger for either case if desired. There is no "id" key in the
// grammar: b.ID is derived from start-time, exactly as the original
// backup->backup_id = backup->start_time assignment.
func ReadControl(path string) (*BackupRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fatalf("ReadControl: open "+path, err)
	}
	defer f.Close()

	b := &BackupRecord{}
	haveStartTime := false

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		val = strings.Trim(val, "'")

		switch key {
		case "mode":
			b.Mode = ParseBackupMode(val)
		case "stream":
			b.Stream = val == "true"
		case "compress-alg":
			b.CompressAlg = ParseCompressAlg(val)
		case "compress-level":
			b.CompressLevel = atoiOr0(val)
		case "from-replica":
			b.FromReplica = val == "true"
		case "block-size":
			b.BlockSize = atoiOr0(val)
		case "xlog-block-size":
			b.WALBlockSize = atoiOr0(val)
		case "checksum-version":
			b.ChecksumVersion = atoiOr0(val)
		case "program-version":
			b.ProgramVersion = val
		case "server-version":
			b.ServerVersion = val
		case "timelineid":
			if v, err := strconv.ParseUint(val, 10, 32); err == nil {
				b.TLI = TimelineID(v)
			}
		case "start-lsn":
			if lsn, err := ParseLSN(val); err == nil {
				b.StartLSN = lsn
			}
		case "stop-lsn":
			if lsn, err := ParseLSN(val); err == nil {
				b.StopLSN = lsn
			}
		case "start-time":
			if t, err := time.Parse(controlTimeLayout, val); err == nil {
				b.StartTime = t
				b.ID = BackupID(t.Unix())
				haveStartTime = true
			}
		case "merge-time":
			if t, err := time.Parse(controlTimeLayout, val); err == nil {
				b.MergeTime = t
			}
		case "end-time":
			if t, err := time.Parse(controlTimeLayout, val); err == nil {
				b.EndTime = t
			}
		case "recovery-xid":
			if v, err := strconv.ParseUint(val, 10, 64); err == nil {
				b.RecoveryXID = v
			}
		case "recovery-time":
			if t, err := time.Parse(controlTimeLayout, val); err == nil {
				b.RecoveryTime = t
			}
		case "data-bytes":
			b.DataBytes = atoi64Or0(val)
		case "wal-bytes":
			b.WALBytes = atoi64Or0(val)
		case "uncompressed-bytes":
			b.UncompressedBytes = atoi64Or0(val)
		case "pgdata-bytes":
			b.PGDataBytes = atoi64Or0(val)
		case "status":
			b.Status = ParseBackupStatus(val)
		case "parent-backup-id":
			if id, err := ParseBackupID(val); err == nil {
				b.ParentID = id
			}
		case "primary_conninfo":
			b.PrimaryConninfo = val
		case "external-dirs":
			if val != "" {
				b.ExternalDirs = strings.Split(val, ":")
			}
		case "note":
			b.Note = val
		default:
			// unknown keys are ignored, per spec.md §4.2/§6.
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fatalf("ReadControl: scan "+path, err)
	}

	if !haveStartTime {
		return nil, nil
	}
	return b, nil
}

func atoiOr0(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func atoi64Or0(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
