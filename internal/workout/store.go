package workout

import "iter"

// Store is the insertion-ordered collection of a session's workouts.
// It is not safe for concurrent use; one session goroutine owns it.
type Store struct {
	records []Record
	index   map[string]int
}

func NewStore() *Store {
	return &Store{index: map[string]int{}}
}

func (s *Store) Append(r Record) error {
	if _, ok := s.index[r.id]; ok {
		return &DuplicateIDError{ID: r.id}
	}
	s.index[r.id] = len(s.records)
	s.records = append(s.records, r)
	return nil
}

func (s *Store) FindByID(id string) (Record, bool) {
	i, ok := s.index[id]
	if !ok {
		return Record{}, false
	}
	return s.records[i], true
}

// All yields copies of the records in insertion order.
func (s *Store) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range s.records {
			if !yield(r) {
				return
			}
		}
	}
}

func (s *Store) Len() int {
	return len(s.records)
}

// RecordInteraction bumps the interaction counter of id and returns the
// updated record.
func (s *Store) RecordInteraction(id string) (Record, bool) {
	i, ok := s.index[id]
	if !ok {
		return Record{}, false
	}
	s.records[i].interactions++
	return s.records[i], true
}
