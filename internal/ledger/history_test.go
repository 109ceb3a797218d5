package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/openqna/candour/internal/models"
)

// buildChain creates question -> edit -> report and returns the three
// versions oldest first.
func buildChain(t *testing.T, e *testEnv) (models.QuestionID, [3]models.Version) {
	t.Helper()
	ctx := context.Background()
	id, v1 := e.ask(t, "alice", "Why is the bridge still closed?")

	bg := "Background text"
	v2, err := e.svc.EditQuestion(ctx, e.signed(t, "alice", EditQuestionCommand{
		Question: id, Version: v1, Background: &bg,
	}))
	require.NoError(t, err)

	v3, err := e.svc.ReportQuestion(ctx, e.signed(t, "bob", ReportQuestionCommand{
		Question: id, Reason: models.ReasonOffensive,
	}))
	require.NoError(t, err)

	return id, [3]models.Version{v1, v2, v3}
}

func TestHistoryUnredacted(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.addUser(t, "alice", false)
	e.addUser(t, "bob", false)
	id, v := buildChain(t, e)

	history, err := e.svc.History(context.Background(), id)
	require.NoError(err)
	require.Len(history, 3)

	// Most recent first: [v3, v2, v1].
	require.Equal(v[2], history[0].ID)
	require.Equal(v[1], history[1].ID)
	require.Equal(v[0], history[2].ID)

	// Every element's prior is the next element's id, and the chain
	// terminates at the NewQuestion entry.
	for i := 0; i < len(history)-1; i++ {
		require.NotNil(history[i].Entry)
		require.Equal(history[i+1].ID, *history[i].Entry.Prior)
	}
	last := history[len(history)-1]
	require.Equal(models.EntryNewQuestion, last.Entry.Kind)
	require.Nil(last.Entry.Prior)
}

func TestCensorWholeQuestion(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.addUser(t, "alice", false)
	e.addUser(t, "bob", false)
	ctx := context.Background()
	id, v := buildChain(t, e)

	v4, err := e.svc.CensorQuestion(ctx, "mod1", &CensorQuestionCommand{
		Question:   id,
		Reason:     "offensive content",
		CensorLogs: true,
	})
	require.NoError(err)

	state, err := e.store.GetQuestion(ctx, id)
	require.NoError(err)
	require.Equal(models.StatusCensored, state.Status)
	require.Equal(v4, state.Version)

	// The censor entry itself is intact and lists exactly the content
	// leaves: the NewQuestion and the edit, never the report.
	leaf, err := e.board.Fetch(ctx, v4)
	require.NoError(err)
	entry, err := models.ParseLogEntry(leaf.Content)
	require.NoError(err)
	require.Len(entry.Censor.Removed, 2)
	for _, r := range entry.Censor.Removed {
		require.NotEqual(v[2], r.ID)
	}

	// The content leaves are redacted on the board, the report leaf is not.
	for _, redacted := range []models.Version{v[0], v[1]} {
		l, err := e.board.Fetch(ctx, redacted)
		require.NoError(err)
		require.Nil(l.Content)
	}
	l, err := e.board.Fetch(ctx, v[2])
	require.NoError(err)
	require.NotNil(l.Content)

	// History still returns all four elements, splicing through the holes.
	history, err := e.svc.History(ctx, id)
	require.NoError(err)
	require.Len(history, 4)
	require.Equal(v4, history[0].ID)
	require.NotNil(history[0].Entry)
	require.NotNil(history[1].Entry) // report, untouched
	require.Nil(history[2].Entry)    // edit, redacted
	require.Nil(history[3].Entry)    // new question, redacted
	require.Equal(v[0], history[3].ID)

	// Censored questions are unavailable to further mutation, including a
	// second censor.
	_, err = e.svc.CensorQuestion(ctx, "mod1", &CensorQuestionCommand{
		Question: id, Reason: "again",
	})
	require.ErrorIs(err, models.ErrQuestionDoesNotExist)
	bg := "zombie edit"
	_, err = e.svc.EditQuestion(ctx, e.signed(t, "alice", EditQuestionCommand{
		Question: id, Version: v4, Background: &bg,
	}))
	require.ErrorIs(err, models.ErrQuestionDoesNotExist)
}

func TestCensorSingleAnswer(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.addUser(t, "alice", false)
	e.addUser(t, "mp", true)
	ctx := context.Background()
	id, v1 := e.ask(t, "alice", "Why is the bridge still closed?")

	answer := "Because of reasons."
	v2, err := e.svc.EditQuestion(ctx, e.signed(t, "mp", EditQuestionCommand{
		Question: id, Version: v1, Answer: &answer,
	}))
	require.NoError(err)

	v3, err := e.svc.CensorQuestion(ctx, "mod1", &CensorQuestionCommand{
		Question:   id,
		Reason:     "answer leaked personal data",
		AnswerID:   &v2,
		CensorLogs: true,
	})
	require.NoError(err)

	// Only the answer's inserting leaf was redacted; the question leaf
	// stays, the question itself stays available.
	l, err := e.board.Fetch(ctx, v2)
	require.NoError(err)
	require.Nil(l.Content)
	l, err = e.board.Fetch(ctx, v1)
	require.NoError(err)
	require.NotNil(l.Content)

	state, err := e.store.GetQuestion(ctx, id)
	require.NoError(err)
	require.NotEqual(models.StatusCensored, state.Status)
	require.Equal(v3, state.Version)
	require.Len(state.Answers, 1)
	require.True(state.Answers[0].Censored)
	require.Empty(state.Answers[0].Text)

	// Censoring the same answer again no longer resolves to an uncensored
	// answer.
	_, err = e.svc.CensorQuestion(ctx, "mod1", &CensorQuestionCommand{
		Question: id, Reason: "again", AnswerID: &v2, CensorLogs: true,
	})
	require.ErrorIs(err, models.ErrNotAnUncensoredAnswer)

	// Targeting a leaf that is not an answer insertion fails the same way.
	_, err = e.svc.CensorQuestion(ctx, "mod1", &CensorQuestionCommand{
		Question: id, Reason: "bad target", AnswerID: &v1, CensorLogs: true,
	})
	require.ErrorIs(err, models.ErrNotAnUncensoredAnswer)
}

func TestCensorAppLevelOnly(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.addUser(t, "alice", false)
	e.addUser(t, "bob", false)
	ctx := context.Background()
	id, v := buildChain(t, e)

	v4, err := e.svc.CensorQuestion(ctx, "mod1", &CensorQuestionCommand{
		Question: id,
		Reason:   "hidden but auditable",
	})
	require.NoError(err)

	// Without censor_logs no leaf is redacted.
	for _, h := range v {
		l, err := e.board.Fetch(ctx, h)
		require.NoError(err)
		require.NotNil(l.Content)
	}
	history, err := e.svc.History(ctx, id)
	require.NoError(err)
	require.Len(history, 4)
	require.Equal(v4, history[0].ID)
	for _, el := range history {
		require.NotNil(el.Entry)
	}
}

func TestHistoryCorrupt(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.addUser(t, "alice", false)
	e.addUser(t, "bob", false)
	ctx := context.Background()
	id, v := buildChain(t, e)

	// Redact a leaf behind the protocol's back: no censor entry recorded
	// its predecessor, so the walk cannot splice around the hole.
	require.NoError(e.board.Censor(ctx, v[1]))

	_, err := e.svc.History(ctx, id)
	require.ErrorIs(err, models.ErrHistoryCorrupt)
}

func TestHistorySnapshotAtStart(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.addUser(t, "alice", false)
	e.addUser(t, "bob", false)
	ctx := context.Background()
	id, v := buildChain(t, e)

	// Walking from an older version reflects that version, not later
	// writes.
	history, err := e.svc.walk(ctx, id, v[1])
	require.NoError(err)
	require.Len(history, 2)
	require.Equal(v[1], history[0].ID)
	require.Equal(v[0], history[1].ID)
}
