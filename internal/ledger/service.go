// Package ledger implements the verifiable question ledger: the protocol
// that turns authenticated commands into bulletin board entries and
// current-state rows, and reconstructs a question's history back out of the
// board.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/openqna/candour/internal/bulletin"
	"gitlab.com/openqna/candour/internal/models"
	"gitlab.com/openqna/candour/internal/signing"
	"gitlab.com/openqna/candour/internal/utils"
)

const (
	LimitMaxQuestionLen   = 280
	LimitMaxBackgroundLen = 1024
	LimitMaxAnswerLen     = 1000

	// DuplicateWindow is the cooldown within which resubmitting the same
	// text counts as an accidental duplicate.
	DuplicateWindow = 24 * time.Hour
)

// Service runs the version-gated write protocol. The board and store are
// injected so the protocol stays testable against fakes.
type Service struct {
	store  Store
	board  bulletin.Board
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(store Store, board bulletin.Board, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		board:  board,
		logger: logger,
		now:    time.Now,
	}
}

// RegisterUser creates a participant account from a self-signed command: the
// signature is checked against the key inside the command, proving
// possession. Returns the email verification token for the mailing layer.
func (s *Service) RegisterUser(ctx context.Context, msg *signing.SignedMessage) (string, error) {
	var cmd RegisterUserCommand
	if err := msg.Decode(&cmd); err != nil {
		return "", err
	}
	if err := msg.VerifySelfSigned(cmd.PublicKey); err != nil {
		return "", err
	}
	if msg.User != cmd.UID {
		return "", models.ErrBadSignature
	}

	user := &models.User{
		UID:         cmd.UID,
		DisplayName: cmd.DisplayName,
		Email:       cmd.Email,
		PublicKey:   cmd.PublicKey,
		IsMP:        cmd.IsMP,
		CreatedAt:   s.now(),
	}
	return s.store.CreateUser(ctx, user)
}

// SubmitNewQuestion runs the degenerate form of the write protocol: no prior
// version, but still a duplicate-submission guard.
func (s *Service) SubmitNewQuestion(ctx context.Context, msg *signing.SignedMessage) (models.Version, error) {
	user, err := msg.Verify(ctx, s.store, signing.Policy{})
	if err != nil {
		return "", err
	}
	var cmd NewQuestionCommand
	if err := msg.Decode(&cmd); err != nil {
		return "", err
	}

	if l := len(cmd.QuestionText); l == 0 || l > LimitMaxQuestionLen {
		return "", models.ErrBadContentLen
	}
	if len(cmd.Background) > LimitMaxBackgroundLen {
		return "", models.ErrBadContentLen
	}
	for _, link := range cmd.ReferenceLinks {
		if !utils.ValidateURL(link) {
			return "", models.ErrInvalidFormat
		}
	}

	now := s.now()
	dup, err := s.store.HasRecentDuplicate(ctx, user.UID, cmd.QuestionText, now.Add(-DuplicateWindow))
	if err != nil {
		return "", err
	}
	if dup {
		return "", models.ErrJustAskedThatQuestion
	}

	id := models.ComputeQuestionID(user.UID, cmd.QuestionText, cmd.CreatedTimestamp)
	entry := &models.LogEntry{
		Kind:      models.EntryNewQuestion,
		Question:  id,
		Timestamp: now.Unix(),
		New: &models.NewQuestionPayload{
			Author:           user.UID,
			QuestionText:     cmd.QuestionText,
			CreatedTimestamp: cmd.CreatedTimestamp,
		},
	}
	version, err := s.append(ctx, entry)
	if err != nil {
		return "", err
	}

	state := &models.QuestionState{
		ID:           id,
		Version:      version,
		Author:       user.UID,
		QuestionText: cmd.QuestionText,
		CreatedAt:    now,
		LastModified: now,
		Status:       models.StatusNotFlagged,
		NonDefiningFields: models.NonDefiningFields{
			Background:         cmd.Background,
			PermittedAskers:    cmd.PermittedAskers,
			PermittedAnswerers: cmd.PermittedAnswerers,
			ReferenceLinks:     cmd.ReferenceLinks,
			FollowUpTo:         cmd.FollowUpTo,
		},
	}
	if err := s.store.InsertQuestion(ctx, state); err != nil {
		s.logInconsistency(id, version, err)
		return "", err
	}
	return version, nil
}

// EditQuestion accepts a partial update of the non-defining fields, gated on
// the version the editor declares.
func (s *Service) EditQuestion(ctx context.Context, msg *signing.SignedMessage) (models.Version, error) {
	user, err := msg.Verify(ctx, s.store, signing.Policy{})
	if err != nil {
		return "", err
	}
	var cmd EditQuestionCommand
	if err := msg.Decode(&cmd); err != nil {
		return "", err
	}

	state, err := s.availableQuestion(ctx, cmd.Question)
	if err != nil {
		return "", err
	}
	if cmd.Version != state.Version {
		return "", models.ErrNotCurrentVersion
	}

	upd, err := validateEdit(&cmd, user, state)
	if err != nil {
		return "", err
	}

	now := s.now()
	prior := state.Version
	entry := &models.LogEntry{
		Kind:      models.EntryEditQuestion,
		Question:  state.ID,
		Prior:     &prior,
		Timestamp: now.Unix(),
		Edit: &models.EditPayload{
			Editor: user.UID,
			Update: upd,
		},
	}
	version, err := s.append(ctx, entry)
	if err != nil {
		return "", err
	}

	// The answer's identity is the hash of the edit that inserted it, known
	// only now.
	if upd.NewAnswer != nil {
		upd.NewAnswer.ID = version
		upd.NewAnswer.CreatedAt = now
	}
	status := state.Status
	if upd.IsStructural() {
		status = status.OnStructuralEdit()
	}
	if err := s.store.ApplyUpdate(ctx, state.ID, prior, version, upd, status, now); err != nil {
		s.logInconsistency(state.ID, version, err)
		return "", err
	}
	return version, nil
}

// ReportQuestion flags a question (or one of its answers). Reports link
// against the current version at acceptance time.
func (s *Service) ReportQuestion(ctx context.Context, msg *signing.SignedMessage) (models.Version, error) {
	user, err := msg.Verify(ctx, s.store, signing.Policy{})
	if err != nil {
		return "", err
	}
	var cmd ReportQuestionCommand
	if err := msg.Decode(&cmd); err != nil {
		return "", err
	}
	if !cmd.Reason.Valid() {
		return "", models.ErrBadReason
	}

	state, err := s.availableQuestion(ctx, cmd.Question)
	if err != nil {
		return "", err
	}
	if cmd.AnswerID != nil && findAnswer(state, *cmd.AnswerID) == nil {
		return "", models.ErrInvalidFormat
	}

	// Fail fast before the durable write; the store's uniqueness constraint
	// backstops the race.
	dup, err := s.store.HasReport(ctx, state.ID, user.UID, cmd.Reason, cmd.AnswerID)
	if err != nil {
		return "", err
	}
	if dup {
		return "", models.ErrAlreadyReported
	}

	now := s.now()
	prior := state.Version
	entry := &models.LogEntry{
		Kind:      models.EntryReportQuestion,
		Question:  state.ID,
		Prior:     &prior,
		Timestamp: now.Unix(),
		Report: &models.ReportPayload{
			Reporter: user.UID,
			Reason:   cmd.Reason,
			AnswerID: cmd.AnswerID,
		},
	}
	version, err := s.append(ctx, entry)
	if err != nil {
		return "", err
	}

	report := &models.Report{
		QuestionID: state.ID,
		UserUID:    user.UID,
		Reason:     cmd.Reason,
		AnswerID:   cmd.AnswerID,
		CreatedAt:  now,
	}
	if err := s.store.AddReport(ctx, report, prior, version, state.Status.OnReport()); err != nil {
		s.logInconsistency(state.ID, version, err)
		return "", err
	}
	return version, nil
}

// AllowQuestion dismisses the outstanding flags. App-level only; nothing is
// appended to the board.
func (s *Service) AllowQuestion(ctx context.Context, id models.QuestionID) error {
	state, err := s.availableQuestion(ctx, id)
	if err != nil {
		return err
	}
	next, err := state.Status.OnAllow()
	if err != nil {
		return err
	}
	return s.store.SetStatus(ctx, id, state.Status, next)
}

// DetectLogAhead reports whether the given board leaf is a committed
// successor of the question's stored version, i.e. the board ran ahead of
// the store (a crash between append and commit). This is the trigger
// condition for an operator reconciliation pass.
func (s *Service) DetectLogAhead(ctx context.Context, id models.QuestionID, leaf models.HashValue) (bool, error) {
	state, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return false, err
	}
	if leaf == state.Version {
		return false, nil
	}
	fetched, err := s.board.Fetch(ctx, leaf)
	if err != nil {
		return false, err
	}
	if fetched.Content == nil {
		return false, nil
	}
	entry, err := models.ParseLogEntry(fetched.Content)
	if err != nil {
		return false, err
	}
	return entry.Question == id && entry.Prior != nil && *entry.Prior == state.Version, nil
}

// availableQuestion loads a question for mutation. Censored questions are
// reported as nonexistent, which is also why censoring twice fails.
func (s *Service) availableQuestion(ctx context.Context, id models.QuestionID) (*models.QuestionState, error) {
	state, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if state.Status == models.StatusCensored {
		return nil, models.ErrQuestionDoesNotExist
	}
	return state, nil
}

func (s *Service) append(ctx context.Context, entry *models.LogEntry) (models.Version, error) {
	data, err := entry.Serialize()
	if err != nil {
		return "", err
	}
	version, err := s.board.Append(ctx, data)
	if err != nil {
		return "", fmt.Errorf("appending %s entry: %w", entry.Kind, err)
	}
	return version, nil
}

// logInconsistency records a store failure after a successful board append.
// The board is never rolled back; the leaf stays, the store lags, and
// DetectLogAhead will flag the question until reconciled. A plain CAS loss
// is not an inconsistency, only a lost race.
func (s *Service) logInconsistency(id models.QuestionID, version models.Version, err error) {
	if err == models.ErrNotCurrentVersion {
		return
	}
	s.logger.Error().
		Str("question", string(id)).
		Str("leaf", string(version)).
		Err(err).
		Msg("store commit failed after board append; reconciliation required")
}

func validateEdit(cmd *EditQuestionCommand, user *models.User, state *models.QuestionState) (models.QuestionUpdate, error) {
	upd := models.QuestionUpdate{
		Background:         cmd.Background,
		PermittedAskers:    cmd.PermittedAskers,
		PermittedAnswerers: cmd.PermittedAnswerers,
		AnswerAccepted:     cmd.AnswerAccepted,
		ReferenceLinks:     cmd.ReferenceLinks,
		FollowUpTo:         cmd.FollowUpTo,
	}
	if cmd.Answer != nil {
		upd.NewAnswer = &models.Answer{Author: user.UID, Text: *cmd.Answer}
	}
	if upd.IsEmpty() {
		return upd, models.ErrInvalidFormat
	}

	isAuthor := user.UID == state.Author
	if cmd.Background != nil {
		// Only the author may edit the background.
		if !isAuthor {
			return upd, models.ErrPermDenied
		}
		if len(*cmd.Background) > LimitMaxBackgroundLen {
			return upd, models.ErrBadContentLen
		}
	}
	if cmd.Answer != nil {
		// Only an MP may answer, and only a permitted one when the author
		// restricted the answerer list.
		if !user.IsMP {
			return upd, models.ErrPermDenied
		}
		if len(state.PermittedAnswerers) > 0 && !contains(state.PermittedAnswerers, user.UID) {
			return upd, models.ErrPermDenied
		}
		if l := len(*cmd.Answer); l == 0 || l > LimitMaxAnswerLen {
			return upd, models.ErrBadContentLen
		}
	}
	if cmd.PermittedAskers != nil || cmd.PermittedAnswerers != nil ||
		cmd.AnswerAccepted != nil || cmd.ReferenceLinks != nil || cmd.FollowUpTo != nil {
		if !isAuthor {
			return upd, models.ErrPermDenied
		}
	}
	if cmd.ReferenceLinks != nil {
		for _, link := range *cmd.ReferenceLinks {
			if !utils.ValidateURL(link) {
				return upd, models.ErrInvalidFormat
			}
		}
	}
	return upd, nil
}

func findAnswer(state *models.QuestionState, id models.Version) *models.Answer {
	for i := range state.Answers {
		if state.Answers[i].ID == id {
			return &state.Answers[i]
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
