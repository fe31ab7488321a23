//go:build unix

package flock

import "golang.org/x/sys/unix"

// Exclusive acquires an exclusive non-blocking lock on the file descriptor.
// It fails immediately when another process holds the lock.
func Exclusive(fd uintptr) error {
	return unix.Flock(int(fd), unix.LOCK_EX|unix.LOCK_NB)
}

// Unlock releases the lock on the file descriptor.
func Unlock(fd uintptr) error {
	return unix.Flock(int(fd), unix.LOCK_UN)
}
