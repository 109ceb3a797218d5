package ledger

import (
	"context"

	"gitlab.com/openqna/candour/internal/models"
)

// censorRedactAttempts bounds the in-line retries of leaf redaction. A leaf
// that still fails is logged for the operator; the censor entry is already
// durable, so auditability does not depend on completing here.
const censorRedactAttempts = 3

// CensorQuestion executes a moderator redaction. Ordering is what makes the
// chain survivable: the censor entry listing the {id, prior} pairs is
// appended and the store transaction committed before any leaf is actually
// redacted, so reconstruction can always splice around the holes even if
// redaction is interrupted partway.
func (s *Service) CensorQuestion(ctx context.Context, moderator string, cmd *CensorQuestionCommand) (models.Version, error) {
	if cmd.Reason == "" {
		return "", models.ErrBadReason
	}
	state, err := s.availableQuestion(ctx, cmd.Question)
	if err != nil {
		return "", err
	}

	var removed []models.RemovedLeaf
	if cmd.CensorLogs {
		removable, history, err := s.collectRemovable(ctx, state.ID, state.Version)
		if err != nil {
			return "", err
		}
		if cmd.AnswerID != nil {
			removed, err = filterAnswerLeaf(removable, history, *cmd.AnswerID)
			if err != nil {
				return "", err
			}
		} else {
			removed = removable
		}
	}
	if cmd.AnswerID != nil {
		if a := findAnswer(state, *cmd.AnswerID); a == nil || a.Censored {
			return "", models.ErrNotAnUncensoredAnswer
		}
	}

	status := state.Status
	if cmd.AnswerID == nil {
		status, err = state.Status.OnCensor()
		if err != nil {
			return "", err
		}
	}

	now := s.now()
	prior := state.Version
	entry := &models.LogEntry{
		Kind:      models.EntryCensorQuestion,
		Question:  state.ID,
		Prior:     &prior,
		Timestamp: now.Unix(),
		Censor: &models.CensorPayload{
			Moderator:  moderator,
			Reason:     cmd.Reason,
			AnswerID:   cmd.AnswerID,
			CensorLogs: cmd.CensorLogs,
			Removed:    removed,
		},
	}
	version, err := s.append(ctx, entry)
	if err != nil {
		return "", err
	}

	if err := s.store.MarkCensored(ctx, state.ID, prior, version, cmd.AnswerID, status, now); err != nil {
		s.logInconsistency(state.ID, version, err)
		return "", err
	}

	// Only now, with the splice information durable, are leaves redacted.
	// A partial failure leaves some content discoverable until retried; it
	// never breaks reconstruction.
	for _, r := range removed {
		s.redactLeaf(ctx, r.ID)
	}
	return version, nil
}

func (s *Service) redactLeaf(ctx context.Context, leaf models.HashValue) {
	var err error
	for attempt := 0; attempt < censorRedactAttempts; attempt++ {
		if err = s.board.Censor(ctx, leaf); err == nil {
			return
		}
	}
	s.logger.Error().
		Str("leaf", string(leaf)).
		Err(err).
		Msg("leaf redaction failed; must be retried until complete")
}

// filterAnswerLeaf narrows the redaction set to exactly the edit that
// inserted the targeted answer.
func filterAnswerLeaf(removable []models.RemovedLeaf, history []HistoryElement, answerID models.Version) ([]models.RemovedLeaf, error) {
	entries := make(map[models.HashValue]*models.LogEntry, len(history))
	for _, el := range history {
		entries[el.ID] = el.Entry
	}
	var out []models.RemovedLeaf
	for _, r := range removable {
		entry := entries[r.ID]
		if r.ID == answerID && entry != nil &&
			entry.Kind == models.EntryEditQuestion && entry.Edit.Update.NewAnswer != nil {
			out = append(out, r)
		}
	}
	if len(out) != 1 {
		return nil, models.ErrNotAnUncensoredAnswer
	}
	return out, nil
}
