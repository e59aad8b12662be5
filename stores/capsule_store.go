package stores

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	cst "wuyrush.io/chronos/constants"
	pe "wuyrush.io/chronos/errors"
	md "wuyrush.io/chronos/models"
)

// CapsuleStore vends the interface to interact with the capsule collection. Capsules are never updated nor
// removed once added.
type CapsuleStore interface {
	// Prepend adds c in front of the collection
	Prepend(c *md.Capsule) *pe.Err
	// List returns a snapshot of the collection, newest first. Callers must not mutate returned capsules.
	List() []*md.Capsule
	Get(id string) (*md.Capsule, *pe.Err)
}

// MemStore is a CapsuleStore living in process memory
type MemStore struct {
	mu       sync.RWMutex
	capsules []*md.Capsule
	byID     map[string]*md.Capsule
}

func NewMemStore(seed ...*md.Capsule) *MemStore {
	s := &MemStore{
		capsules: make([]*md.Capsule, 0, len(seed)),
		byID:     make(map[string]*md.Capsule, len(seed)),
	}
	for _, c := range seed {
		s.capsules = append(s.capsules, c)
		s.byID[c.ID] = c
	}
	return s
}

func (s *MemStore) Prepend(c *md.Capsule) *pe.Err {
	if c == nil || c.ID == "" {
		return pe.NewBadInput("capsule must carry an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; ok {
		return pe.NewServiceFailure(fmt.Sprintf("capsule %s already exists", c.ID))
	}
	s.capsules = append([]*md.Capsule{c}, s.capsules...)
	s.byID[c.ID] = c
	log.WithField(cst.LogFieldCapsuleID, c.ID).Debug("capsule added")
	return nil
}

func (s *MemStore) List() []*md.Capsule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*md.Capsule, len(s.capsules))
	copy(out, s.capsules)
	return out
}

func (s *MemStore) Get(id string) (*md.Capsule, *pe.Err) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, pe.NewNotFound(fmt.Sprintf("capsule %s not found", id))
	}
	return c, nil
}

// Seed returns the capsules a fresh archive starts with
func Seed(now time.Time) []*md.Capsule {
	date := func(s string) md.Date {
		d, err := md.ParseDate(s)
		if err != nil {
			panic(err)
		}
		return d
	}
	return []*md.Capsule{
		{
			ID:                "1",
			OccursOn:          date("1969-07-20"),
			Title:             "One Small Step",
			Message:           "The day humanity touched the moon. A reminder of what we can achieve when we look up.",
			ImageURL:          "https://picsum.photos/seed/moon/600/400",
			AuthorDisplayName: "Neil",
			Tier:              md.TierGalaxy,
			LikeCount:         1240,
			CreatedAt:         now,
		},
		{
			ID:                "2",
			OccursOn:          date("1989-11-09"),
			Title:             "Wall Coming Down",
			Message:           "I was there when the barriers fell. Freedom felt like static in the air.",
			ImageURL:          "https://picsum.photos/seed/wall/600/400",
			AuthorDisplayName: "BerlinDreamer",
			Tier:              md.TierAura,
			LikeCount:         850,
			CreatedAt:         now,
		},
		{
			ID:                "3",
			OccursOn:          date("2025-01-01"),
			Title:             "Future Hopes",
			Message:           "To my future self: I hope we finally learned to play the guitar.",
			ImageURL:          "https://picsum.photos/seed/guitar/600/400",
			AuthorDisplayName: "SelfCare",
			Tier:              md.TierFragment,
			IsAnonymous:       true,
			LikeCount:         45,
			CreatedAt:         now,
		},
	}
}
