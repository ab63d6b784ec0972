package lockmap

import (
	"sync"
)

// LockMap serializes work by an arbitrary key (for example: a layer ID,
// to make sure only one goroutine reconciles the metadata mirrors of a
// given layer at a time).
type LockMap struct {
	globalLock sync.Mutex
	lockMap    map[any]*Unlocker
}

// NewLockMap returns an instance of LockMap.
func NewLockMap() *LockMap {
	return &LockMap{
		lockMap: map[any]*Unlocker{},
	}
}

// Lock blocks until the key is exclusively owned by the caller and
// returns the Unlocker guarding it.
//
// An Unlocker is shared by everybody contending on the same key and is
// dropped from the map once the last holder releases it; its UserData
// therefore memoizes state exactly for the duration of the contention.
func (m *LockMap) Lock(key any) *Unlocker {
	m.globalLock.Lock()

	l := m.lockMap[key]
	if l != nil {
		if l.refCount == 0 {
			panic("LockMap contains a released Unlocker")
		}
		l.refCount++
	} else {
		l = &Unlocker{m: m, key: key, refCount: 1}
		m.lockMap[key] = l
	}
	m.globalLock.Unlock()

	l.locker.Lock()
	return l
}

// Unlocker provides method Unlock, which could be used to unlock the key.
type Unlocker struct {
	// UserData is a field for arbitrary data, which could be used by
	// external packages for memoization.
	UserData any

	// internal:
	locker   sync.Mutex
	key      any
	m        *LockMap
	refCount int64
}

// Unlock releases the lock for the key.
func (l *Unlocker) Unlock() {
	l.locker.Unlock()

	l.m.globalLock.Lock()
	defer l.m.globalLock.Unlock()
	l.refCount--
	if l.refCount == 0 {
		delete(l.m.lockMap, l.key)
	}
}
