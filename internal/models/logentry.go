package models

import (
	"encoding/json"
	"fmt"
)

// EntryKind discriminates the bulletin board leaf payloads.
type EntryKind string

const (
	EntryNewQuestion    EntryKind = "new_question"
	EntryEditQuestion   EntryKind = "edit_question"
	EntryReportQuestion EntryKind = "report_question"
	EntryCensorQuestion EntryKind = "censor_question"
)

var entryKindValues = map[EntryKind]struct{}{
	EntryNewQuestion:    {},
	EntryEditQuestion:   {},
	EntryReportQuestion: {},
	EntryCensorQuestion: {},
}

func (k EntryKind) Valid() bool {
	_, ok := entryKindValues[k]
	return ok
}

// NewQuestionPayload holds the defining fields. Terminal entry of every
// question's chain; it has no prior.
type NewQuestionPayload struct {
	Author           string `json:"author"`
	QuestionText     string `json:"question_text"`
	CreatedTimestamp int64  `json:"created_timestamp"`
}

type EditPayload struct {
	Editor string         `json:"editor"`
	Update QuestionUpdate `json:"update"`
}

type ReportPayload struct {
	Reporter string     `json:"reporter"`
	Reason   FlagReason `json:"reason"`
	AnswerID *Version   `json:"answer_id,omitempty"`
}

// RemovedLeaf is one (leaf id, prior pointer) pair recorded by a censor entry
// before the leaf itself is redacted. History reconstruction splices the
// chain through these.
type RemovedLeaf struct {
	ID    Version  `json:"id"`
	Prior *Version `json:"prior,omitempty"`
}

type CensorPayload struct {
	Moderator  string        `json:"moderator"`
	Reason     string        `json:"reason"`
	AnswerID   *Version      `json:"answer_id,omitempty"`
	CensorLogs bool          `json:"censor_logs"`
	Removed    []RemovedLeaf `json:"removed,omitempty"`
}

// LogEntry is one immutable bulletin board leaf. Exactly one payload field is
// set, matching Kind. Prior links to the previous version of the question and
// is absent only on NewQuestion entries.
type LogEntry struct {
	Kind      EntryKind  `json:"kind"`
	Question  QuestionID `json:"question"`
	Prior     *Version   `json:"prior,omitempty"`
	Timestamp int64      `json:"timestamp"`

	New    *NewQuestionPayload `json:"new,omitempty"`
	Edit   *EditPayload        `json:"edit,omitempty"`
	Report *ReportPayload      `json:"report,omitempty"`
	Censor *CensorPayload      `json:"censor,omitempty"`
}

func (e *LogEntry) Serialize() ([]byte, error) {
	return json.Marshal(e)
}

// ParseLogEntry decodes a leaf and checks the kind/payload/prior shape.
func ParseLogEntry(data []byte) (*LogEntry, error) {
	var e LogEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding log entry: %w", err)
	}
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("log entry has unknown kind %q", e.Kind)
	}
	switch e.Kind {
	case EntryNewQuestion:
		if e.New == nil || e.Prior != nil {
			return nil, fmt.Errorf("malformed %s entry", e.Kind)
		}
	case EntryEditQuestion:
		if e.Edit == nil || e.Prior == nil {
			return nil, fmt.Errorf("malformed %s entry", e.Kind)
		}
	case EntryReportQuestion:
		if e.Report == nil || e.Prior == nil {
			return nil, fmt.Errorf("malformed %s entry", e.Kind)
		}
	case EntryCensorQuestion:
		if e.Censor == nil || e.Prior == nil {
			return nil, fmt.Errorf("malformed %s entry", e.Kind)
		}
	}
	return &e, nil
}
