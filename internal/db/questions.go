package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgconn"
	"gitlab.com/openqna/candour/internal/models"
)

type questionRow struct {
	ID             models.QuestionID  `db:"id"`
	Version        models.Version     `db:"version"`
	Author         string             `db:"author"`
	QuestionText   string             `db:"question_text"`
	Background     string             `db:"background"`
	AnswerAccepted bool               `db:"answer_accepted"`
	FollowUpTo     *models.QuestionID `db:"follow_up_to"`
	Status         string             `db:"status"`
	ReportCount    int                `db:"report_count"`
	CreatedAt      time.Time          `db:"created_at"`
	LastModified   time.Time          `db:"last_modified"`
}

var questionColumns = []string{
	"id", "version", "author", "question_text", "background",
	"answer_accepted", "follow_up_to", "status", "report_count",
	"created_at", "last_modified",
}

// GetQuestion loads the full current state of a question, censored or not.
// Callers that must treat censored questions as unavailable check Status.
func (sdb *SharedDB) GetQuestion(ctx context.Context, id models.QuestionID) (*models.QuestionState, error) {
	sql, args, _ := psql.
		Select(questionColumns...).
		From("questions").
		Where(sq.Eq{"id": id}).
		ToSql()

	var row questionRow
	err := pgxscan.Get(ctx, sdb.db, &row, sql, args...)
	if pgxscan.NotFound(err) {
		return nil, models.ErrQuestionDoesNotExist
	}
	if err != nil {
		return nil, err
	}

	status, ok := models.ParseCensorshipStatus(row.Status)
	if !ok {
		return nil, fmt.Errorf("question %s has unknown status %q", id, row.Status)
	}
	state := &models.QuestionState{
		ID:           row.ID,
		Version:      row.Version,
		Author:       row.Author,
		QuestionText: row.QuestionText,
		CreatedAt:    row.CreatedAt,
		LastModified: row.LastModified,
		Status:       status,
		ReportCount:  row.ReportCount,
		NonDefiningFields: models.NonDefiningFields{
			Background:     row.Background,
			AnswerAccepted: row.AnswerAccepted,
			FollowUpTo:     row.FollowUpTo,
		},
	}

	sql, args, _ = psql.
		Select("version", "author", "answer_text", "censored", "created_at").
		From("answers").
		Where(sq.Eq{"question_id": id}).
		OrderBy("created_at").
		ToSql()
	if err := pgxscan.Select(ctx, sdb.db, &state.Answers, sql, args...); err != nil {
		return nil, err
	}

	sql, args, _ = psql.
		Select("url").
		From("question_links").
		Where(sq.Eq{"question_id": id}).
		OrderBy("url").
		ToSql()
	if err := pgxscan.Select(ctx, sdb.db, &state.ReferenceLinks, sql, args...); err != nil {
		return nil, err
	}

	sql, args, _ = psql.
		Select("uid").
		From("question_permissions").
		Where(sq.Eq{"question_id": id, "role": "asker"}).
		OrderBy("uid").
		ToSql()
	if err := pgxscan.Select(ctx, sdb.db, &state.PermittedAskers, sql, args...); err != nil {
		return nil, err
	}

	sql, args, _ = psql.
		Select("uid").
		From("question_permissions").
		Where(sq.Eq{"question_id": id, "role": "answerer"}).
		OrderBy("uid").
		ToSql()
	if err := pgxscan.Select(ctx, sdb.db, &state.PermittedAnswerers, sql, args...); err != nil {
		return nil, err
	}

	return state, nil
}

// HasRecentDuplicate reports whether the author already submitted the same
// text after the given instant. Backs the 24h resubmission cooldown.
func (sdb *SharedDB) HasRecentDuplicate(ctx context.Context, author, questionText string, since time.Time) (bool, error) {
	var exists bool
	err := pgxscan.Get(ctx, sdb.db, &exists,
		"SELECT exists(SELECT 1 FROM questions WHERE author = $1 AND question_text = $2 AND created_at > $3)",
		author, questionText, since)
	return exists, err
}

// InsertQuestion creates the current-state row for a freshly appended
// NewQuestion entry.
func (sdb *SharedDB) InsertQuestion(ctx context.Context, state *models.QuestionState) error {
	return execTx(ctx, sdb.db, func(ctx context.Context, tx DBTX) error {
		sql, args, _ := psql.
			Insert("questions").
			Columns(questionColumns...).
			Values(state.ID, state.Version, state.Author, state.QuestionText,
				state.Background, state.AnswerAccepted, state.FollowUpTo,
				state.Status.String(), state.ReportCount,
				state.CreatedAt, state.LastModified).
			ToSql()
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.ConstraintName == "questions_pkey" {
				return models.ErrJustAskedThatQuestion
			}
			return err
		}
		if err := replacePermissions(ctx, tx, state.ID, "asker", state.PermittedAskers); err != nil {
			return err
		}
		if err := replacePermissions(ctx, tx, state.ID, "answerer", state.PermittedAnswerers); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, state.ID, state.ReferenceLinks)
	})
}

// ApplyUpdate advances a question's row to the next version, conditioned on
// the version still being the one the caller validated against. Zero rows
// updated means another writer got there first.
func (sdb *SharedDB) ApplyUpdate(ctx context.Context, id models.QuestionID, expect, next models.Version,
	upd models.QuestionUpdate, status models.CensorshipStatus, now time.Time) error {
	return execTx(ctx, sdb.db, func(ctx context.Context, tx DBTX) error {
		q := psql.
			Update("questions").
			Set("version", next).
			Set("status", status.String()).
			Set("last_modified", now).
			Where(sq.Eq{"id": id, "version": expect})
		if upd.Background != nil {
			q = q.Set("background", *upd.Background)
		}
		if upd.AnswerAccepted != nil {
			q = q.Set("answer_accepted", *upd.AnswerAccepted)
		}
		if upd.FollowUpTo != nil {
			q = q.Set("follow_up_to", *upd.FollowUpTo)
		}
		sql, args, _ := q.ToSql()
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotCurrentVersion
		}

		if upd.NewAnswer != nil {
			a := upd.NewAnswer
			sql, args, _ := psql.
				Insert("answers").
				Columns("question_id", "version", "author", "answer_text", "censored", "created_at").
				Values(id, a.ID, a.Author, a.Text, false, now).
				ToSql()
			if _, err := tx.Exec(ctx, sql, args...); err != nil {
				return err
			}
		}
		if upd.PermittedAskers != nil {
			if err := replacePermissions(ctx, tx, id, "asker", *upd.PermittedAskers); err != nil {
				return err
			}
		}
		if upd.PermittedAnswerers != nil {
			if err := replacePermissions(ctx, tx, id, "answerer", *upd.PermittedAnswerers); err != nil {
				return err
			}
		}
		if upd.ReferenceLinks != nil {
			if err := replaceLinks(ctx, tx, id, *upd.ReferenceLinks); err != nil {
				return err
			}
		}
		return nil
	})
}

// HasReport reports whether the (user, question, reason, answer) tuple was
// already filed. Pre-check only; the reports_unique_key index is what makes
// it race-proof.
func (sdb *SharedDB) HasReport(ctx context.Context, id models.QuestionID, uid string,
	reason models.FlagReason, answerID *models.Version) (bool, error) {
	answer := ""
	if answerID != nil {
		answer = string(*answerID)
	}
	var exists bool
	err := pgxscan.Get(ctx, sdb.db, &exists,
		"SELECT exists(SELECT 1 FROM reports WHERE question_id = $1 AND user_uid = $2 AND reason = $3 AND answer_id = $4)",
		id, uid, string(reason), answer)
	return exists, err
}

// AddReport records a flag and advances the version pointer in one
// transaction. The (user, question, reason, answer) uniqueness lives in the
// reports_unique_key index.
func (sdb *SharedDB) AddReport(ctx context.Context, report *models.Report, expect, next models.Version,
	status models.CensorshipStatus) error {
	return execTx(ctx, sdb.db, func(ctx context.Context, tx DBTX) error {
		answerID := ""
		if report.AnswerID != nil {
			answerID = string(*report.AnswerID)
		}
		sql, args, _ := psql.
			Insert("reports").
			Columns("question_id", "user_uid", "reason", "answer_id", "created_at").
			Values(report.QuestionID, report.UserUID, string(report.Reason), answerID, report.CreatedAt).
			Suffix("RETURNING id").
			ToSql()
		row := tx.QueryRow(ctx, sql, args...)
		if err := row.Scan(&report.ID); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.ConstraintName == "reports_unique_key" {
				return models.ErrAlreadyReported
			}
			return err
		}

		sql, args, _ = psql.
			Update("questions").
			Set("version", next).
			Set("status", status.String()).
			Set("report_count", sq.Expr("report_count + 1")).
			Set("last_modified", report.CreatedAt).
			Where(sq.Eq{"id": report.QuestionID, "version": expect}).
			ToSql()
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotCurrentVersion
		}
		return nil
	})
}

// MarkCensored commits the state effects of a censor entry: the new version
// pointer, the new status, and for answer-only censorship the answer row
// being blanked.
func (sdb *SharedDB) MarkCensored(ctx context.Context, id models.QuestionID, expect, next models.Version,
	answerID *models.Version, status models.CensorshipStatus, now time.Time) error {
	return execTx(ctx, sdb.db, func(ctx context.Context, tx DBTX) error {
		sql, args, _ := psql.
			Update("questions").
			Set("version", next).
			Set("status", status.String()).
			Set("last_modified", now).
			Where(sq.Eq{"id": id, "version": expect}).
			ToSql()
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotCurrentVersion
		}

		if answerID != nil {
			sql, args, _ := psql.
				Update("answers").
				Set("censored", true).
				Set("answer_text", "").
				Where(sq.Eq{"question_id": id, "version": *answerID}).
				ToSql()
			if _, err := tx.Exec(ctx, sql, args...); err != nil {
				return err
			}
		}
		return nil
	})
}

// QuestionSummary is the list view of a question.
type QuestionSummary struct {
	ID           models.QuestionID `db:"id"`
	Author       string            `db:"author"`
	QuestionText string            `db:"question_text"`
	ReportCount  int               `db:"report_count"`
	Status       string            `db:"status"`
	CreatedAt    time.Time         `db:"created_at"`
	LastModified time.Time         `db:"last_modified"`
}

// ListQuestions returns recent questions, censored ones excluded.
func (sdb *SharedDB) ListQuestions(ctx context.Context, limit, offset uint64) ([]QuestionSummary, error) {
	sql, args, _ := psql.
		Select("id", "author", "question_text", "report_count", "status", "created_at", "last_modified").
		From("questions").
		Where(sq.NotEq{"status": models.StatusCensored.String()}).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		ToSql()

	var out []QuestionSummary
	err := pgxscan.Select(ctx, sdb.db, &out, sql, args...)
	return out, err
}

// ListFlagged returns questions awaiting moderation, most reported first.
func (sdb *SharedDB) ListFlagged(ctx context.Context) ([]QuestionSummary, error) {
	sql, args, _ := psql.
		Select("id", "author", "question_text", "report_count", "status", "created_at", "last_modified").
		From("questions").
		Where(sq.Eq{"status": []string{
			models.StatusFlagged.String(),
			models.StatusStructureChangedThenFlagged.String(),
		}}).
		OrderBy("report_count DESC", "last_modified").
		ToSql()

	var out []QuestionSummary
	err := pgxscan.Select(ctx, sdb.db, &out, sql, args...)
	return out, err
}

// ListReports returns every report filed against a question.
func (sdb *SharedDB) ListReports(ctx context.Context, id models.QuestionID) ([]models.Report, error) {
	sql, args, _ := psql.
		Select("id", "question_id", "user_uid", "reason", "nullif(answer_id, '') AS answer_id", "created_at").
		From("reports").
		Where(sq.Eq{"question_id": id}).
		OrderBy("created_at").
		ToSql()

	var out []models.Report
	err := pgxscan.Select(ctx, sdb.db, &out, sql, args...)
	return out, err
}

// SetStatus moves a question's status without touching the version pointer,
// conditioned on the current status. Used for moderator allow, which is an
// app-level act and appends nothing to the board.
func (sdb *SharedDB) SetStatus(ctx context.Context, id models.QuestionID, from, to models.CensorshipStatus) error {
	sql, args, _ := psql.
		Update("questions").
		Set("status", to.String()).
		Set("last_modified", time.Now()).
		Where(sq.Eq{"id": id, "status": from.String()}).
		ToSql()
	tag, err := sdb.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotCurrentVersion
	}
	return nil
}

func replacePermissions(ctx context.Context, tx DBTX, id models.QuestionID, role string, uids []string) error {
	sql, args, _ := psql.
		Delete("question_permissions").
		Where(sq.Eq{"question_id": id, "role": role}).
		ToSql()
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}
	for _, uid := range uids {
		sql, args, _ := psql.
			Insert("question_permissions").
			Columns("question_id", "uid", "role").
			Values(id, uid, role).
			ToSql()
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return err
		}
	}
	return nil
}

func replaceLinks(ctx context.Context, tx DBTX, id models.QuestionID, links []string) error {
	sql, args, _ := psql.
		Delete("question_links").
		Where(sq.Eq{"question_id": id}).
		ToSql()
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}
	for _, link := range links {
		sql, args, _ := psql.
			Insert("question_links").
			Columns("question_id", "url").
			Values(id, link).
			ToSql()
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return err
		}
	}
	return nil
}
