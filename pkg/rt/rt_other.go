//go:build !linux

// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package rt

// LockMemory is a no-op on non-Linux hosts.
func LockMemory() error { return nil }

// RaisePriority is a no-op on non-Linux hosts.
func RaisePriority(nice int) error { return nil }
