package service

import (
	"slices"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/google/uuid"
)

// DesireSet keeps desires in insertion order so ranking ties resolve to the
// earliest-added desire.
type DesireSet struct {
	desires []*domain.Desire
}

func NewDesireSet() *DesireSet {
	return &DesireSet{}
}

func (s *DesireSet) Add(d *domain.Desire) {
	s.desires = append(s.desires, d)
}

// Remove drops the desire with id and reports whether it was present.
func (s *DesireSet) Remove(id uuid.UUID) (*domain.Desire, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	d := s.desires[i]
	s.desires = slices.Delete(s.desires, i, i+1)
	return d, true
}

func (s *DesireSet) Get(id uuid.UUID) (*domain.Desire, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	return s.desires[i], true
}

func (s *DesireSet) Len() int { return len(s.desires) }

func (s *DesireSet) IsEmpty() bool { return len(s.desires) == 0 }

// All returns the desires in insertion order.
func (s *DesireSet) All() []*domain.Desire {
	return slices.Clone(s.desires)
}

type RankedDesire struct {
	Desire   *domain.Desire
	Priority float64
}

// Ranked orders the desires by effective priority in state, highest first. Equal
// priorities keep insertion order.
func (s *DesireSet) Ranked(state domain.WorldState) []RankedDesire {
	out := make([]RankedDesire, len(s.desires))
	for i, d := range s.desires {
		out[i] = RankedDesire{Desire: d, Priority: d.EffectivePriority(state)}
	}
	slices.SortStableFunc(out, func(a, b RankedDesire) int {
		switch {
		case a.Priority > b.Priority:
			return -1
		case a.Priority < b.Priority:
			return 1
		default:
			return 0
		}
	})
	return out
}

func (s *DesireSet) index(id uuid.UUID) int {
	return slices.IndexFunc(s.desires, func(d *domain.Desire) bool { return d.ID() == id })
}
