package models

import (
	"encoding/json"
	"fmt"
)

// CensorshipStatus tracks where a question sits in the flagging/moderation
// lifecycle. Censored is terminal.
type CensorshipStatus int

const (
	StatusNotFlagged CensorshipStatus = iota
	StatusFlagged
	StatusAllowed
	StatusStructureChanged
	StatusStructureChangedThenFlagged
	StatusCensored
)

// One bidirectional mapping table per enum, shared by storage and the API.
// Validated by a round-trip test.
var censorshipStatusNames = map[CensorshipStatus]string{
	StatusNotFlagged:                  "not_flagged",
	StatusFlagged:                     "flagged",
	StatusAllowed:                     "allowed",
	StatusStructureChanged:            "structure_changed",
	StatusStructureChangedThenFlagged: "structure_changed_then_flagged",
	StatusCensored:                    "censored",
}

var censorshipStatusValues = func() map[string]CensorshipStatus {
	m := make(map[string]CensorshipStatus, len(censorshipStatusNames))
	for k, v := range censorshipStatusNames {
		m[v] = k
	}
	return m
}()

func (s CensorshipStatus) String() string {
	return censorshipStatusNames[s]
}

func (s CensorshipStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *CensorshipStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, ok := censorshipStatusValues[name]
	if !ok {
		return fmt.Errorf("unknown censorship status %q", name)
	}
	*s = v
	return nil
}

func ParseCensorshipStatus(s string) (CensorshipStatus, bool) {
	v, ok := censorshipStatusValues[s]
	return v, ok
}

// OnReport returns the status after a report is received. Only NotFlagged and
// StructureChanged react; Allowed in particular stays Allowed.
func (s CensorshipStatus) OnReport() CensorshipStatus {
	switch s {
	case StatusNotFlagged:
		return StatusFlagged
	case StatusStructureChanged:
		return StatusStructureChangedThenFlagged
	default:
		return s
	}
}

// OnStructuralEdit returns the status after an accepted edit that changed
// authored content.
func (s CensorshipStatus) OnStructuralEdit() CensorshipStatus {
	if s == StatusAllowed {
		return StatusStructureChanged
	}
	return s
}

// OnAllow returns the status after a moderator dismisses the flags.
func (s CensorshipStatus) OnAllow() (CensorshipStatus, error) {
	switch s {
	case StatusFlagged, StatusStructureChangedThenFlagged:
		return StatusAllowed, nil
	default:
		return s, ErrPermDenied
	}
}

// OnCensor returns the status after a moderator censors the question.
// Censoring an already censored question is rejected, never silently
// accepted.
func (s CensorshipStatus) OnCensor() (CensorshipStatus, error) {
	if s == StatusCensored {
		return s, ErrQuestionDoesNotExist
	}
	return StatusCensored, nil
}
