//go:build linux

// Realtime process setup for the step sampling loop
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package rt applies best-effort realtime settings to the current process
// before a tight solver sampling loop: locking memory to avoid page faults
// and raising scheduling priority. Failures are reported but never fatal;
// the solver is correct either way, just less jitter-free.
package rt

import "golang.org/x/sys/unix"

// LockMemory pins current and future pages into RAM.
func LockMemory() error {
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}

// RaisePriority sets the process niceness (negative values need privilege).
func RaisePriority(nice int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, 0, nice)
}
