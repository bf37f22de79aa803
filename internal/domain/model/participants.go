package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ParticipantSet is an ordered set of user ids. It is stored as a JSON array and
// serializes as one; insertion order is kept but carries no meaning.
type ParticipantSet []string

func NewParticipantSet(ids ...string) ParticipantSet {
	s := ParticipantSet{}
	for _, id := range ids {
		s = s.Add(id)
	}
	return s
}

func (s ParticipantSet) Contains(userID string) bool {
	for _, id := range s {
		if id == userID {
			return true
		}
	}
	return false
}

// Add returns the set with userID appended, or s unchanged if already present.
func (s ParticipantSet) Add(userID string) ParticipantSet {
	if s.Contains(userID) {
		return s
	}
	return append(s, userID)
}

// Remove returns a copy of the set without userID.
func (s ParticipantSet) Remove(userID string) ParticipantSet {
	out := make(ParticipantSet, 0, len(s))
	for _, id := range s {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}

func (s ParticipantSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// UnmarshalJSON accepts a JSON array (or null) and drops duplicates.
func (s *ParticipantSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("participants must be an array of user ids: %w", err)
	}
	*s = NewParticipantSet(ids...)
	return nil
}

func (s ParticipantSet) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *ParticipantSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = ParticipantSet{}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("cannot scan %T into ParticipantSet", src)
}
