package models

import "time"

// FlagReason is why a user reported a question or answer.
type FlagReason string

const (
	ReasonThreatening    FlagReason = "threatening"
	ReasonTargetedHarass FlagReason = "targeted_harassment"
	ReasonOffensive      FlagReason = "offensive"
	ReasonSpam           FlagReason = "spam"
	ReasonIllegal        FlagReason = "illegal_content"
)

var flagReasonValues = map[FlagReason]struct{}{
	ReasonThreatening:    {},
	ReasonTargetedHarass: {},
	ReasonOffensive:      {},
	ReasonSpam:           {},
	ReasonIllegal:        {},
}

func (r FlagReason) Valid() bool {
	_, ok := flagReasonValues[r]
	return ok
}

// Report records that a user flagged a question, or one of its answers, for a
// reason. At most one report per (user, question, reason, answer) tuple; the
// store enforces that as a uniqueness constraint.
type Report struct {
	ID         int        `json:"-" db:"id"`
	QuestionID QuestionID `json:"question_id" db:"question_id"`
	UserUID    string     `json:"user" db:"user_uid"`
	Reason     FlagReason `json:"reason" db:"reason"`
	AnswerID   *Version   `json:"answer_id,omitempty" db:"answer_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
