package preflight

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckArchive verifies that path is a readable regular file starting with
// a gzip header. It returns the file size for the free space estimate.
// Damage past the header is only found while merging.
func CheckArchive(path string) (Result, int64) {
	name := "Archive " + path
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: "does not exist"}, 0
		}
		return Result{Name: name, Detail: fmt.Sprintf("stat: %v", err)}, 0
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: "not a regular file"}, 0
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("open: %v", err)}, 0
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("not gzip: %v", err)}, 0
	}
	defer zr.Close()
	// A tar header block is 512 bytes; anything shorter cannot hold a member.
	if _, err := io.ReadFull(zr, make([]byte, 512)); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreadable: %v", err)}, 0
	}
	return Result{Name: name, Passed: true, Detail: humanize.Bytes(uint64(info.Size()))}, info.Size()
}

// CheckFreeSpace fails when the filesystem holding path has less free
// space than need. Compressed archive size is used as the estimate, which
// undercounts slightly for already-compressed media.
func CheckFreeSpace(name, path string, need int64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	if need > 0 && free < uint64(need) {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, archives total %s", humanize.Bytes(free), humanize.Bytes(uint64(need)))}
	}
	return Result{Name: name, Passed: true, Detail: humanize.Bytes(free) + " free"}
}
