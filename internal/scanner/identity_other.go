//go:build !unix

package scanner

import "os"

func fileIdentity(os.FileInfo) (inode, device uint64) {
	return 0, 0
}
