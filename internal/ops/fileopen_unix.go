//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/draftpad/internal/errors"
)

// openFileNoFollow opens path with O_NOFOLLOW so a symlink planted as the
// final component is refused. Parent directories are covered by ValidatePath.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	return openNoFollow(path, flag, perm, "cannot write to symlink")
}

// openFileNoFollowRead is openFileNoFollow for import files.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := openNoFollow(path, os.O_RDONLY, 0, "cannot read from symlink")
	if stderrors.Is(err, syscall.ENOENT) {
		return nil, errors.NewFileNotFound(path)
	}
	return f, err
}

func openNoFollow(path string, flag int, perm os.FileMode, symlinkMsg string) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest(symlinkMsg)
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
