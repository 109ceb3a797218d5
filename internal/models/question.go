package models

import "time"

// Answer is one MP-authored answer to a question. ID is the version (leaf
// hash) of the edit that inserted it, which is what a moderator targets when
// censoring a single answer.
type Answer struct {
	ID        Version   `json:"id" db:"version"`
	Author    string    `json:"author" db:"author"`
	Text      string    `json:"text" db:"answer_text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Censored  bool      `json:"censored" db:"censored"`
}

// NonDefiningFields are the mutable attributes of a question. Used as a
// snapshot: zero values mean "never set".
type NonDefiningFields struct {
	Background         string      `json:"background,omitempty"`
	Answers            []Answer    `json:"answers,omitempty"`
	PermittedAskers    []string    `json:"permitted_askers,omitempty"`
	PermittedAnswerers []string    `json:"permitted_answerers,omitempty"`
	AnswerAccepted     bool        `json:"answer_accepted,omitempty"`
	ReferenceLinks     []string    `json:"reference_links,omitempty"`
	FollowUpTo         *QuestionID `json:"follow_up_to,omitempty"`
}

// QuestionUpdate carries a partial update of the non-defining fields.
// A nil field means "leave unchanged", which keeps it unambiguous with
// respect to NonDefiningFields where blank means "never set".
type QuestionUpdate struct {
	Background         *string     `json:"background,omitempty"`
	NewAnswer          *Answer     `json:"new_answer,omitempty"`
	PermittedAskers    *[]string   `json:"permitted_askers,omitempty"`
	PermittedAnswerers *[]string   `json:"permitted_answerers,omitempty"`
	AnswerAccepted     *bool       `json:"answer_accepted,omitempty"`
	ReferenceLinks     *[]string   `json:"reference_links,omitempty"`
	FollowUpTo         *QuestionID `json:"follow_up_to,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u QuestionUpdate) IsEmpty() bool {
	return u.Background == nil &&
		u.NewAnswer == nil &&
		u.PermittedAskers == nil &&
		u.PermittedAnswerers == nil &&
		u.AnswerAccepted == nil &&
		u.ReferenceLinks == nil &&
		u.FollowUpTo == nil
}

// IsStructural reports whether the update changes authored content, which is
// what moves an Allowed question to StructureChanged.
func (u QuestionUpdate) IsStructural() bool {
	return u.Background != nil || u.NewAnswer != nil
}

// QuestionState is the current-state row for a question: the authoritative
// version pointer plus the denormalized fields.
type QuestionState struct {
	ID           QuestionID `json:"id" db:"id"`
	Version      Version    `json:"version" db:"version"`
	Author       string     `json:"author" db:"author"`
	QuestionText string     `json:"question_text" db:"question_text"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastModified time.Time  `json:"last_modified" db:"last_modified"`
	Status       CensorshipStatus `json:"status"`
	ReportCount  int              `json:"report_count" db:"report_count"`
	NonDefiningFields
}
