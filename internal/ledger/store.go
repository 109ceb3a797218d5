package ledger

import (
	"context"
	"time"

	"gitlab.com/openqna/candour/internal/models"
)

// Store is the current-state side of the protocol. db.SharedDB implements
// it; tests use an in-memory fake. Every version-taking method performs a
// compare-and-set on the question's version pointer and returns
// models.ErrNotCurrentVersion when a concurrent writer won.
type Store interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (verificationToken string, err error)

	GetQuestion(ctx context.Context, id models.QuestionID) (*models.QuestionState, error)
	HasRecentDuplicate(ctx context.Context, author, questionText string, since time.Time) (bool, error)
	HasReport(ctx context.Context, id models.QuestionID, uid string, reason models.FlagReason, answerID *models.Version) (bool, error)

	InsertQuestion(ctx context.Context, state *models.QuestionState) error
	ApplyUpdate(ctx context.Context, id models.QuestionID, expect, next models.Version,
		upd models.QuestionUpdate, status models.CensorshipStatus, now time.Time) error
	AddReport(ctx context.Context, report *models.Report, expect, next models.Version,
		status models.CensorshipStatus) error
	MarkCensored(ctx context.Context, id models.QuestionID, expect, next models.Version,
		answerID *models.Version, status models.CensorshipStatus, now time.Time) error
	SetStatus(ctx context.Context, id models.QuestionID, from, to models.CensorshipStatus) error
}
