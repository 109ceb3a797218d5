package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/openqna/candour/internal/db"
	"gitlab.com/openqna/candour/internal/ledger"
	"gitlab.com/openqna/candour/internal/models"
)

type Routes struct {
	db     *db.SharedDB
	ledger *ledger.Service
}

func NewRouter(database *db.SharedDB, svc *ledger.Service, logger zerolog.Logger) chi.Router {
	routes := &Routes{db: database, ledger: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("request")
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/user/register", AppHandler(routes.PostRegister))
		r.Post("/user/verify", AppHandler(routes.PostVerifyEmail))

		r.Post("/question", AppHandler(routes.PostQuestion))
		r.Post("/question/edit", AppHandler(routes.PostEdit))
		r.Post("/question/report", AppHandler(routes.PostReport))
		r.Get("/question/{id}", AppHandler(routes.GetQuestion))
		r.Get("/question/{id}/history", AppHandler(routes.GetHistory))
		r.Get("/questions", AppHandler(routes.GetQuestions))

		r.Route("/moderation", func(r chi.Router) {
			r.Post("/login", AppHandler(routes.PostModeratorLogin))
			r.Post("/signout", AppHandler(routes.PostModeratorSignout))
			r.With(routes.RequireModerator).Group(func(r chi.Router) {
				r.Get("/flagged", AppHandler(routes.GetFlagged))
				r.Get("/reports/{id}", AppHandler(routes.GetReports))
				r.Post("/censor", AppHandler(routes.PostCensor))
				r.Post("/allow", AppHandler(routes.PostAllow))
				r.Post("/block", AppHandler(routes.PostBlock))
				r.Post("/log-ahead", AppHandler(routes.PostLogAhead))
			})
		})
	})
	return r
}

// AppError is what handlers return instead of writing errors ad hoc.
type AppError struct {
	Message string
	Code    int
	Cause   error
}

func AppHandler(handler func(w http.ResponseWriter, r *http.Request) *AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}
		if err.Code == 0 {
			err.Code = http.StatusInternalServerError
		}
		if err.Message == "" {
			err.Message = "Internal server error"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(err.Code)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Message})

		ev := hlog.FromRequest(r).Error()
		if err.Code < http.StatusInternalServerError {
			ev = hlog.FromRequest(r).Warn()
		}
		ev.
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("code", err.Code).
			Err(err.Cause).
			Msg(err.Message)
	}
}

// appError maps domain errors to the response taxonomy: authentication and
// validation surfaced verbatim, corruption opaque, infrastructure generic.
func appError(err error) *AppError {
	switch {
	case errors.Is(err, models.ErrNoSuchUser),
		errors.Is(err, models.ErrInvalidPublicKeyFormat),
		errors.Is(err, models.ErrInvalidSignatureFormat),
		errors.Is(err, models.ErrBadSignature),
		errors.Is(err, models.ErrUserBlocked),
		errors.Is(err, models.ErrUserUnregistered):
		return &AppError{Message: err.Error(), Code: http.StatusUnauthorized, Cause: err}
	case errors.Is(err, models.ErrPermDenied):
		return &AppError{Message: err.Error(), Code: http.StatusForbidden, Cause: err}
	case errors.Is(err, models.ErrQuestionDoesNotExist):
		return &AppError{Message: err.Error(), Code: http.StatusNotFound, Cause: err}
	case errors.Is(err, models.ErrNotCurrentVersion),
		errors.Is(err, models.ErrAlreadyReported),
		errors.Is(err, models.ErrJustAskedThatQuestion),
		errors.Is(err, models.ErrEmailAlreadyUsed),
		errors.Is(err, models.ErrUIDAlreadyUsed):
		return &AppError{Message: err.Error(), Code: http.StatusConflict, Cause: err}
	case errors.Is(err, models.ErrBadCommandFormat),
		errors.Is(err, models.ErrBadContentLen),
		errors.Is(err, models.ErrBadReason),
		errors.Is(err, models.ErrNotAnUncensoredAnswer),
		errors.Is(err, models.ErrInvalidFormat),
		errors.Is(err, models.ErrWeakPasswd):
		return &AppError{Message: err.Error(), Code: http.StatusBadRequest, Cause: err}
	case errors.Is(err, models.ErrHistoryCorrupt):
		// Internals would not help the caller; this is an operator
		// incident.
		return &AppError{Message: "history is corrupt", Code: http.StatusInternalServerError, Cause: err}
	default:
		return &AppError{Cause: err}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) *AppError {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return &AppError{Cause: err}
	}
	return nil
}

func decodeJSON(r *http.Request, v interface{}) *AppError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &AppError{Message: "malformed request body", Code: http.StatusBadRequest, Cause: err}
	}
	return nil
}
