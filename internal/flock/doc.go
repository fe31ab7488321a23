// Package flock serializes access to the rotation cache between injector
// processes running the same scenario.
//
// Exclusive and Unlock wrap the platform's non-blocking exclusive lock.
// Acquire adds the retry loop most callers want:
//
//	lock, err := flock.Acquire(ctx, path+".lock", constants.LockTimeout)
//	if err != nil {
//	    return err // wraps errors.ErrLockTimeout when the lock stays busy
//	}
//	defer lock.Release()
package flock
