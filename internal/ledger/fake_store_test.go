package ledger

import (
	"context"
	"sync"
	"time"

	"gitlab.com/openqna/candour/internal/models"
)

// memStore implements Store with the same compare-and-set semantics as the
// postgres store, including the uniqueness constraint on reports.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*models.User
	questions map[models.QuestionID]*models.QuestionState
	reports   []models.Report
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*models.User),
		questions: make(map[models.QuestionID]*models.QuestionState),
	}
}

func (m *memStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, models.ErrNoSuchUser
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.UID]; ok {
		return "", models.ErrUIDAlreadyUsed
	}
	cp := *user
	m.users[user.UID] = &cp
	return "token-" + user.UID, nil
}

func (m *memStore) GetQuestion(ctx context.Context, id models.QuestionID) (*models.QuestionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, models.ErrQuestionDoesNotExist
	}
	cp := *q
	cp.Answers = append([]models.Answer(nil), q.Answers...)
	return &cp, nil
}

func (m *memStore) HasRecentDuplicate(ctx context.Context, author, text string, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.questions {
		if q.Author == author && q.QuestionText == text && q.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) HasReport(ctx context.Context, id models.QuestionID, uid string,
	reason models.FlagReason, answerID *models.Version) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasReportLocked(id, uid, reason, answerID), nil
}

func (m *memStore) hasReportLocked(id models.QuestionID, uid string,
	reason models.FlagReason, answerID *models.Version) bool {
	for _, r := range m.reports {
		if r.QuestionID == id && r.UserUID == uid && r.Reason == reason &&
			versionPtrEq(r.AnswerID, answerID) {
			return true
		}
	}
	return false
}

func (m *memStore) InsertQuestion(ctx context.Context, state *models.QuestionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[state.ID]; ok {
		return models.ErrJustAskedThatQuestion
	}
	cp := *state
	m.questions[state.ID] = &cp
	return nil
}

func (m *memStore) ApplyUpdate(ctx context.Context, id models.QuestionID, expect, next models.Version,
	upd models.QuestionUpdate, status models.CensorshipStatus, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok || q.Version != expect {
		return models.ErrNotCurrentVersion
	}
	q.Version = next
	q.Status = status
	q.LastModified = now
	if upd.Background != nil {
		q.Background = *upd.Background
	}
	if upd.NewAnswer != nil {
		q.Answers = append(q.Answers, *upd.NewAnswer)
	}
	if upd.PermittedAskers != nil {
		q.PermittedAskers = *upd.PermittedAskers
	}
	if upd.PermittedAnswerers != nil {
		q.PermittedAnswerers = *upd.PermittedAnswerers
	}
	if upd.AnswerAccepted != nil {
		q.AnswerAccepted = *upd.AnswerAccepted
	}
	if upd.ReferenceLinks != nil {
		q.ReferenceLinks = *upd.ReferenceLinks
	}
	if upd.FollowUpTo != nil {
		q.FollowUpTo = upd.FollowUpTo
	}
	return nil
}

func (m *memStore) AddReport(ctx context.Context, report *models.Report, expect, next models.Version,
	status models.CensorshipStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[report.QuestionID]
	if !ok || q.Version != expect {
		return models.ErrNotCurrentVersion
	}
	if m.hasReportLocked(report.QuestionID, report.UserUID, report.Reason, report.AnswerID) {
		return models.ErrAlreadyReported
	}
	m.reports = append(m.reports, *report)
	q.Version = next
	q.Status = status
	q.ReportCount++
	return nil
}

func (m *memStore) MarkCensored(ctx context.Context, id models.QuestionID, expect, next models.Version,
	answerID *models.Version, status models.CensorshipStatus, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok || q.Version != expect {
		return models.ErrNotCurrentVersion
	}
	q.Version = next
	q.Status = status
	q.LastModified = now
	if answerID != nil {
		for i := range q.Answers {
			if q.Answers[i].ID == *answerID {
				q.Answers[i].Censored = true
				q.Answers[i].Text = ""
			}
		}
	}
	return nil
}

func (m *memStore) SetStatus(ctx context.Context, id models.QuestionID, from, to models.CensorshipStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok || q.Status != from {
		return models.ErrNotCurrentVersion
	}
	q.Status = to
	return nil
}

func (m *memStore) reportCount(id models.QuestionID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions[id].ReportCount
}

func versionPtrEq(a, b *models.Version) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
