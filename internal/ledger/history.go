package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitlab.com/openqna/candour/internal/bulletin"
	"gitlab.com/openqna/candour/internal/models"
)

// HistoryElement is one resolved step of a question's chain, most recent
// first. Entry is nil when the leaf was redacted.
type HistoryElement struct {
	ID        models.HashValue `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Entry     *models.LogEntry `json:"entry,omitempty"`
}

// History reconstructs the complete ordered history of a question, censored
// questions included: a redacted leaf still occupies its position, with its
// payload gone. Chain resolution errors are logged in full and surfaced as
// the opaque ErrHistoryCorrupt.
func (s *Service) History(ctx context.Context, id models.QuestionID) ([]HistoryElement, error) {
	state, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.walk(ctx, id, state.Version)
	if err != nil {
		if errors.Is(err, models.ErrHistoryCorrupt) {
			s.logger.Error().Str("question", string(id)).Err(err).Msg("history reconstruction failed")
			return nil, models.ErrHistoryCorrupt
		}
		return nil, err
	}
	return history, nil
}

// walk follows the backward chain from the given version. Redacted leaves
// are resolved through the {id, prior} pairs recorded by censor entries; a
// censor entry is always appended before the leaves it lists are redacted,
// so the splice information is always reachable first on a correctly
// operating system.
func (s *Service) walk(ctx context.Context, id models.QuestionID, from models.Version) ([]HistoryElement, error) {
	type priorSlot struct {
		prior *models.Version
	}
	redacted := make(map[models.HashValue]priorSlot)
	var history []HistoryElement

	pending := &from
	for pending != nil {
		at := *pending
		leaf, err := s.board.Fetch(ctx, at)
		if errors.Is(err, bulletin.ErrNoSuchLeaf) {
			// A dangling pointer is corruption, not an outage.
			return nil, fmt.Errorf("leaf %s does not exist: %w", at, models.ErrHistoryCorrupt)
		}
		if err != nil {
			return nil, fmt.Errorf("fetching leaf %s: %w", at, err)
		}

		if leaf.Content == nil {
			// Redacted. The censor entry that removed it was walked
			// already, so its predecessor must be on record.
			slot, ok := redacted[at]
			if !ok {
				return nil, fmt.Errorf("leaf %s is redacted with no recorded predecessor: %w",
					at, models.ErrHistoryCorrupt)
			}
			delete(redacted, at)
			history = append(history, HistoryElement{ID: at, Timestamp: leaf.Timestamp})
			pending = slot.prior
			continue
		}

		entry, err := models.ParseLogEntry(leaf.Content)
		if err != nil {
			return nil, fmt.Errorf("leaf %s: %v: %w", at, err, models.ErrHistoryCorrupt)
		}
		if entry.Question != id {
			return nil, fmt.Errorf("leaf %s belongs to question %s, not %s: %w",
				at, entry.Question, id, models.ErrHistoryCorrupt)
		}
		if entry.Kind == models.EntryCensorQuestion {
			for _, r := range entry.Censor.Removed {
				redacted[r.ID] = priorSlot{prior: r.Prior}
			}
		}
		history = append(history, HistoryElement{ID: at, Timestamp: leaf.Timestamp, Entry: entry})
		pending = entry.Prior
	}

	// Leftovers mean a censor entry listed leaves that never showed up in
	// the chain. Not fatal to this read, but a bookkeeping defect.
	if len(redacted) > 0 {
		s.logger.Warn().
			Str("question", string(id)).
			Int("leftover", len(redacted)).
			Msg("censor entries listed leaves not found while walking the chain")
	}
	return history, nil
}

// collectRemovable walks the history and gathers the {id, prior} pairs of
// every content-bearing NewQuestion/EditQuestion leaf. Report and censor
// entries carry no authored content and are never redacted.
func (s *Service) collectRemovable(ctx context.Context, id models.QuestionID, from models.Version) ([]models.RemovedLeaf, []HistoryElement, error) {
	history, err := s.walk(ctx, id, from)
	if err != nil {
		return nil, nil, err
	}
	var removable []models.RemovedLeaf
	for _, el := range history {
		if el.Entry == nil {
			continue // already redacted
		}
		switch el.Entry.Kind {
		case models.EntryNewQuestion, models.EntryEditQuestion:
			removable = append(removable, models.RemovedLeaf{ID: el.ID, Prior: el.Entry.Prior})
		}
	}
	return removable, history, nil
}
