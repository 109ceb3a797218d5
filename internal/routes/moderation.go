package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gitlab.com/openqna/candour/internal/ledger"
	"gitlab.com/openqna/candour/internal/models"
)

type moderatorKey struct{}

// RequireModerator resolves the session token from the X-Moderator-Token
// header and stashes the moderator on the request context.
func (routes *Routes) RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Moderator-Token")
		mod, err := routes.db.GetModerator(r.Context(), token)
		if err != nil {
			AppHandler(func(w http.ResponseWriter, r *http.Request) *AppError {
				return appError(models.ErrPermDenied)
			})(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), moderatorKey{}, mod)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getModerator(r *http.Request) *models.Moderator {
	mod, _ := r.Context().Value(moderatorKey{}).(*models.Moderator)
	return mod
}

func (routes *Routes) PostModeratorLogin(w http.ResponseWriter, r *http.Request) *AppError {
	var body struct {
		Email  string `json:"email"`
		Passwd string `json:"passwd"`
	}
	if appErr := decodeJSON(r, &body); appErr != nil {
		return appErr
	}
	token, err := routes.db.ModeratorLogin(r.Context(), body.Email, body.Passwd)
	if err != nil {
		return &AppError{Message: "bad credentials", Code: http.StatusUnauthorized, Cause: err}
	}
	return writeJSON(w, map[string]string{"token": token})
}

func (routes *Routes) PostModeratorSignout(w http.ResponseWriter, r *http.Request) *AppError {
	if err := routes.db.ModeratorSignout(r.Context(), r.Header.Get("X-Moderator-Token")); err != nil {
		return appError(err)
	}
	return nil
}

func (routes *Routes) GetFlagged(w http.ResponseWriter, r *http.Request) *AppError {
	list, err := routes.db.ListFlagged(r.Context())
	if err != nil {
		return appError(err)
	}
	return writeJSON(w, list)
}

func (routes *Routes) GetReports(w http.ResponseWriter, r *http.Request) *AppError {
	id := models.QuestionID(chi.URLParam(r, "id"))
	reports, err := routes.db.ListReports(r.Context(), id)
	if err != nil {
		return appError(err)
	}
	return writeJSON(w, reports)
}

func (routes *Routes) PostCensor(w http.ResponseWriter, r *http.Request) *AppError {
	var cmd ledger.CensorQuestionCommand
	if appErr := decodeJSON(r, &cmd); appErr != nil {
		return appErr
	}
	version, err := routes.ledger.CensorQuestion(r.Context(), getModerator(r).Name, &cmd)
	if err != nil {
		return appError(err)
	}
	return writeJSON(w, versionResponse{Version: version})
}

func (routes *Routes) PostBlock(w http.ResponseWriter, r *http.Request) *AppError {
	var body struct {
		UID     string `json:"uid"`
		Blocked bool   `json:"blocked"`
	}
	if appErr := decodeJSON(r, &body); appErr != nil {
		return appErr
	}
	if err := routes.db.SetBlocked(r.Context(), body.UID, body.Blocked); err != nil {
		return appError(err)
	}
	return nil
}

// PostLogAhead checks whether a board leaf is a committed successor of a
// question's stored version, meaning a crash left the store lagging behind
// the board. Operators probe this before running a reconciliation pass.
func (routes *Routes) PostLogAhead(w http.ResponseWriter, r *http.Request) *AppError {
	var body struct {
		Question models.QuestionID `json:"question"`
		Leaf     models.HashValue  `json:"leaf"`
	}
	if appErr := decodeJSON(r, &body); appErr != nil {
		return appErr
	}
	ahead, err := routes.ledger.DetectLogAhead(r.Context(), body.Question, body.Leaf)
	if err != nil {
		return appError(err)
	}
	return writeJSON(w, map[string]bool{"log_ahead": ahead})
}

func (routes *Routes) PostAllow(w http.ResponseWriter, r *http.Request) *AppError {
	var body struct {
		Question models.QuestionID `json:"question"`
	}
	if appErr := decodeJSON(r, &body); appErr != nil {
		return appErr
	}
	if err := routes.ledger.AllowQuestion(r.Context(), body.Question); err != nil {
		return appError(err)
	}
	return nil
}
