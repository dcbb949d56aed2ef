package catalog

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockBackup_AcquireFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.pid")
	ok, err := LockBackup(path, NopLogger())
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))

	ReleaseAllLocks(NopLogger())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLockBackup_StaleSelfPIDIsReclaimed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.pid")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644))

	ok, err := LockBackup(path, NopLogger())
	require.NoError(t, err)
	assert.True(t, ok, "a lock stamped with our own pid must be treated as stale")
	ReleaseAllLocks(NopLogger())
}

func TestLockBackup_StaleDeadPIDIsReclaimed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.pid")
	// pid 2^30 is exceedingly unlikely to be a live process on any test host.
	require.NoError(t, os.WriteFile(path, []byte("1073741824\n"), 0o644))

	ok, err := LockBackup(path, NopLogger())
	require.NoError(t, err)
	assert.True(t, ok)
	ReleaseAllLocks(NopLogger())
}

func TestLockBackup_CorruptPIDIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid\n"), 0o644))

	_, err := LockBackup(path, NopLogger())
	require.Error(t, err)
	var fe *FatalError
	assert.ErrorAs(t, err, &fe)
}

func TestLockBackup_LivePeerReturnsFalse(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	require.NoError(t, cmd.Start())
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	path := filepath.Join(t.TempDir(), "backup.pid")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(cmd.Process.Pid)+"\n"), 0o644))

	ok, err := LockBackup(path, NopLogger())
	require.NoError(t, err)
	assert.False(t, ok)

	// the lock file must still exist; LockBackup does not disturb a live peer's lock.
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
