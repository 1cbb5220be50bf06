//go:build linux

package handle

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// acquire pins the calling goroutine to its current OS thread and reads
// the kernel thread id, mirroring the teacher repo's goid_amd64.go
// approach of obtaining a real, kernel-assigned numeric identity rather
// than inventing one.
//
// LockOSThread is held until release is called. This is the cost of
// giving a reader a genuine thread_handle: the goroutine can no longer be
// moved to another OS thread for the duration of its registration, same
// as a pthread-based reader never migrates either.
func acquire() (uint64, func()) {
	runtime.LockOSThread()
	tid := unix.Gettid()
	return uint64(tid), runtime.UnlockOSThread
}
