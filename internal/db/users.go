package db

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgconn"
	"gitlab.com/openqna/candour/internal/models"
	"gitlab.com/openqna/candour/internal/utils"
)

// CreateUser registers a participant. The signature over the registration
// command was already checked against the submitted key; here we only keep
// the registry consistent. Returns the email verification token the caller
// hands to the mailing plumbing.
func (sdb *SharedDB) CreateUser(ctx context.Context, user *models.User) (verificationToken string, err error) {
	if user.UID == "" || user.DisplayName == "" {
		return "", models.ErrInvalidFormat
	}
	if !utils.ValidateEmail(user.Email) {
		return "", models.ErrInvalidFormat
	}

	verificationToken = utils.GenToken(TokenLen)
	err = execTx(ctx, sdb.db, func(ctx context.Context, tx DBTX) error {
		sql, args, _ := psql.
			Insert("users").
			Columns("uid", "display_name", "email", "public_key", "is_mp", "email_verified", "blocked", "created_at").
			Values(user.UID, user.DisplayName, user.Email, user.PublicKey, user.IsMP, false, false, user.CreatedAt).
			ToSql()
		_, err := tx.Exec(ctx, sql, args...)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return models.ErrEmailAlreadyUsed
			case "users_pkey":
				return models.ErrUIDAlreadyUsed
			}
		}
		if err != nil {
			return err
		}

		sql, args, _ = psql.
			Insert("email_verifications").
			Columns("uid", "token").
			Values(user.UID, verificationToken).
			ToSql()
		_, err = tx.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		return "", err
	}
	return verificationToken, nil
}

func (sdb *SharedDB) GetUser(ctx context.Context, uid string) (*models.User, error) {
	sql, args, _ := psql.
		Select("uid", "display_name", "email", "public_key", "is_mp", "email_verified", "blocked", "created_at").
		From("users").
		Where(sq.Eq{"uid": uid}).
		ToSql()

	var user models.User
	err := pgxscan.Get(ctx, sdb.db, &user, sql, args...)
	if pgxscan.NotFound(err) {
		return nil, models.ErrNoSuchUser
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyEmail consumes a verification token and marks the account
// registered.
func (sdb *SharedDB) VerifyEmail(ctx context.Context, token string) error {
	return execTx(ctx, sdb.db, func(ctx context.Context, tx DBTX) error {
		sql, args, _ := psql.
			Delete("email_verifications").
			Where(sq.Eq{"token": token}).
			Suffix("RETURNING uid").
			ToSql()
		var uid string
		row := tx.QueryRow(ctx, sql, args...)
		if err := row.Scan(&uid); err != nil {
			if pgxscan.NotFound(err) {
				return models.ErrNoSuchUser
			}
			return err
		}

		sql, args, _ = psql.
			Update("users").
			Set("email_verified", true).
			Where(sq.Eq{"uid": uid}).
			ToSql()
		_, err := tx.Exec(ctx, sql, args...)
		return err
	})
}

// SetBlocked flips the moderation block on an account.
func (sdb *SharedDB) SetBlocked(ctx context.Context, uid string, blocked bool) error {
	sql, args, _ := psql.
		Update("users").
		Set("blocked", blocked).
		Where(sq.Eq{"uid": uid}).
		ToSql()
	tag, err := sdb.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNoSuchUser
	}
	return nil
}
