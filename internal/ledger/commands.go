package ledger

import "gitlab.com/openqna/candour/internal/models"

// Commands are the payloads participants sign. The envelope's user is the
// authenticated actor; commands never carry their own identity claim.

type RegisterUserCommand struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PublicKey   string `json:"public_key"`
	IsMP        bool   `json:"is_mp"`
}

type NewQuestionCommand struct {
	QuestionText       string             `json:"question_text"`
	CreatedTimestamp   int64              `json:"created_timestamp"`
	Background         string             `json:"background,omitempty"`
	PermittedAskers    []string           `json:"permitted_askers,omitempty"`
	PermittedAnswerers []string           `json:"permitted_answerers,omitempty"`
	ReferenceLinks     []string           `json:"reference_links,omitempty"`
	FollowUpTo         *models.QuestionID `json:"follow_up_to,omitempty"`
}

// EditQuestionCommand declares the version it was built against; any other
// current version fails the compare-and-swap. Nil fields are left unchanged.
type EditQuestionCommand struct {
	Question models.QuestionID `json:"question"`
	Version  models.Version    `json:"version"`

	Background         *string            `json:"background,omitempty"`
	Answer             *string            `json:"answer,omitempty"`
	PermittedAskers    *[]string          `json:"permitted_askers,omitempty"`
	PermittedAnswerers *[]string          `json:"permitted_answerers,omitempty"`
	AnswerAccepted     *bool              `json:"answer_accepted,omitempty"`
	ReferenceLinks     *[]string          `json:"reference_links,omitempty"`
	FollowUpTo         *models.QuestionID `json:"follow_up_to,omitempty"`
}

// ReportQuestionCommand links against whatever version is current when it is
// accepted, so it carries none.
type ReportQuestionCommand struct {
	Question models.QuestionID `json:"question"`
	Reason   models.FlagReason `json:"reason"`
	AnswerID *models.Version   `json:"answer_id,omitempty"`
}

// CensorQuestionCommand is moderator-issued and arrives over an
// authenticated moderator session rather than a signed envelope. CensorLogs
// asks for board-level redaction on top of app-level hiding; AnswerID
// narrows the redaction to one answer's inserting leaf.
type CensorQuestionCommand struct {
	Question   models.QuestionID `json:"question"`
	Reason     string            `json:"reason"`
	AnswerID   *models.Version   `json:"answer_id,omitempty"`
	CensorLogs bool              `json:"censor_logs"`
}
