package db

import (
	"context"
	"errors"
	"strings"
	"unicode"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgconn"
	"gitlab.com/openqna/candour/internal/models"
	"gitlab.com/openqna/candour/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// Moderators use password sessions; participants never do, their commands
// are individually signed.

func (sdb *SharedDB) CreateModerator(ctx context.Context, mod *models.Moderator, passwd string) error {
	if !utils.ValidateEmail(mod.Email) {
		return models.ErrInvalidFormat
	}
	if !validatePasswd(passwd, []string{mod.Email, mod.Name}) {
		return models.ErrWeakPasswd
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passwd), sdb.bcryptCost)
	if err != nil {
		return err
	}

	sql, args, _ := psql.
		Insert("moderators").
		Columns("name", "email", "passwd_hash").
		Values(mod.Name, mod.Email, hash).
		Suffix("RETURNING id").
		ToSql()
	row := sdb.db.QueryRow(ctx, sql, args...)
	err = row.Scan(&mod.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "moderators_email_key" {
		return models.ErrEmailAlreadyUsed
	}
	return err
}

func (sdb *SharedDB) ModeratorLogin(ctx context.Context, email, passwd string) (token string, err error) {
	sql, args, _ := psql.
		Select("id", "passwd_hash").
		From("moderators").
		Where(sq.Eq{"email": email}).
		ToSql()

	var data struct {
		ID         int
		PasswdHash string
	}
	err = pgxscan.Get(ctx, sdb.db, &data, sql, args...)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(data.PasswdHash), []byte(passwd)); err != nil {
		return "", err
	}

	// Insert a new token
	token = utils.GenToken(TokenLen)
	sql, args, _ = psql.
		Insert("moderator_tokens").
		Columns("moderator_id", "token").
		Values(data.ID, token).
		ToSql()
	_, err = sdb.db.Exec(ctx, sql, args...)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (sdb *SharedDB) ModeratorSignout(ctx context.Context, token string) error {
	_, err := sdb.db.Exec(ctx, "DELETE FROM moderator_tokens WHERE token = $1", token)
	return err
}

// GetModerator resolves a session token.
func (sdb *SharedDB) GetModerator(ctx context.Context, token string) (*models.Moderator, error) {
	sql, args, _ := psql.
		Select("moderators.id", "moderators.name", "moderators.email").
		From("moderators").
		Join("moderator_tokens ON moderator_tokens.moderator_id = moderators.id").
		Where(sq.Eq{"moderator_tokens.token": token}).
		ToSql()

	var mod models.Moderator
	err := pgxscan.Get(ctx, sdb.db, &mod, sql, args...)
	if pgxscan.NotFound(err) {
		return nil, models.ErrPermDenied
	}
	if err != nil {
		return nil, err
	}
	return &mod, nil
}

func validatePasswd(passwd string, unrelated []string) bool {
	if len(passwd) < 8 {
		return false
	}
	for _, s := range unrelated {
		if s != "" && strings.Contains(passwd, s) {
			return false
		}
	}
	var hasLetter, hasDigit bool
	for _, r := range passwd {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
