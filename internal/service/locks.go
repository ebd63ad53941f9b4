package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// BoardLocks hands out one RWMutex per board. Placements hold the read side;
// a resize takes the write side so that no placement can race a chunk being
// deleted. One instance is shared between the placement and lifecycle
// services.
type BoardLocks struct {
	locks *xsync.MapOf[uuid.UUID, *sync.RWMutex]
}

func NewBoardLocks() *BoardLocks {
	return &BoardLocks{locks: xsync.NewMapOf[uuid.UUID, *sync.RWMutex]()}
}

func (l *BoardLocks) Get(boardID uuid.UUID) *sync.RWMutex {
	mu, _ := l.locks.LoadOrCompute(boardID, func() *sync.RWMutex {
		return &sync.RWMutex{}
	})
	return mu
}

func (l *BoardLocks) Forget(boardID uuid.UUID) {
	l.locks.Delete(boardID)
}
