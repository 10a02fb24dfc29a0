//go:build unix

package scanner

import (
	"os"
	"syscall"
)

func fileIdentity(info os.FileInfo) (inode, device uint64) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Ino), uint64(st.Dev) //nolint:unconvert // Dev is int32 on darwin
	}
	return 0, 0
}
