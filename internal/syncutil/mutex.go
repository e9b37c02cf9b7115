//go:build !deadlock

// Package syncutil provides the mutexes used to guard session handles and settings.
// Building with -tags=deadlock swaps in github.com/sasha-s/go-deadlock to report
// lock-order inversions and stuck locks while testing against hardware.
package syncutil

import "sync"

// Mutex is a plain sync.Mutex in regular builds.
type Mutex struct {
	sync.Mutex
}

// RWMutex is a plain sync.RWMutex in regular builds.
type RWMutex struct {
	sync.RWMutex
}
