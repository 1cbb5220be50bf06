// Package handle supplies the "thread_handle" field of a reader registry
// entry: a numeric identity for the registering goroutine that is stable
// for the lifetime of its registration.
//
// The spec's data model is written against OS threads, each with a
// natural, unique identity (a pthread_t). Go's analogue, a goroutine, has
// no exported identity at all. Acquire gives every registered reader a
// real one on platforms that support it (the OS thread id, via
// runtime.LockOSThread + golang.org/x/sys/unix.Gettid on Linux — the same
// "pin a goroutine to a thread and read a kernel-assigned id" trick the
// teacher repo uses in internal/race/api/goid_*.go to give every
// goroutine a stable numeric id) and a monotonically increasing synthetic
// id everywhere else.
package handle

// Acquire reserves a thread handle for the calling goroutine and returns
// it along with a release function the caller must invoke exactly once,
// when the reader deregisters.
func Acquire() (id uint64, release func()) {
	return acquire()
}
