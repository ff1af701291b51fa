package inmemory

import (
	"complianceTracker/internal/models/activity"
	repo "complianceTracker/internal/repository"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ActivityStorage struct {
	storage map[uuid.UUID]*activity.Activity
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewActivityStorage() *ActivityStorage {
	return &ActivityStorage{
		storage: make(map[uuid.UUID]*activity.Activity),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *ActivityStorage) Create(ctx context.Context, a *activity.Activity) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[a.UUID]; ok {
		return repo.ErrAlreadyExists
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	s.storage[a.UUID] = a.Clone()
	s.ids = append(s.ids, a.UUID)
	return nil
}

func (s *ActivityStorage) GetByID(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	a, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *ActivityStorage) Update(ctx context.Context, a *activity.Activity) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[a.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Version != a.Version {
		return repo.ErrVersionConflict
	}

	a.Version++
	if a.UpdatedAt == nil {
		now := time.Now()
		a.UpdatedAt = &now
	}
	s.storage[a.UUID] = a.Clone()
	return nil
}

func (s *ActivityStorage) GetAllWithLimit(ctx context.Context, page, limit int) ([]*activity.Activity, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*activity.Activity{}
	offset := max((page-1)*limit, 0)

	for i := offset; i < len(s.ids); i++ {
		if len(res) >= limit {
			break
		}
		res = append(res, s.storage[s.ids[i]].Clone())
	}
	return res, nil
}

func (s *ActivityStorage) GetActive(ctx context.Context) ([]*activity.Activity, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*activity.Activity{}
	for _, id := range s.ids {
		if a := s.storage[id]; a.Active {
			res = append(res, a.Clone())
		}
	}
	return res, nil
}
