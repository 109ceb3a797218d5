package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"gitlab.com/openqna/candour/internal/models"
	"gitlab.com/openqna/candour/internal/signing"
)

type versionResponse struct {
	Version models.Version `json:"version"`
}

func (routes *Routes) PostRegister(w http.ResponseWriter, r *http.Request) *AppError {
	var msg signing.SignedMessage
	if appErr := decodeJSON(r, &msg); appErr != nil {
		return appErr
	}
	// The returned verification token goes to the mailing plumbing, never
	// to the caller; echoing it here would defeat email verification.
	if _, err := routes.ledger.RegisterUser(r.Context(), &msg); err != nil {
		return appError(err)
	}
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (routes *Routes) PostVerifyEmail(w http.ResponseWriter, r *http.Request) *AppError {
	var body struct {
		Token string `json:"token"`
	}
	if appErr := decodeJSON(r, &body); appErr != nil {
		return appErr
	}
	if err := routes.db.VerifyEmail(r.Context(), body.Token); err != nil {
		return appError(err)
	}
	return nil
}

func (routes *Routes) PostQuestion(w http.ResponseWriter, r *http.Request) *AppError {
	var msg signing.SignedMessage
	if appErr := decodeJSON(r, &msg); appErr != nil {
		return appErr
	}
	version, err := routes.ledger.SubmitNewQuestion(r.Context(), &msg)
	if err != nil {
		return appError(err)
	}
	return writeJSON(w, versionResponse{Version: version})
}

func (routes *Routes) PostEdit(w http.ResponseWriter, r *http.Request) *AppError {
	var msg signing.SignedMessage
	if appErr := decodeJSON(r, &msg); appErr != nil {
		return appErr
	}
	version, err := routes.ledger.EditQuestion(r.Context(), &msg)
	if err != nil {
		return appError(err)
	}
	return writeJSON(w, versionResponse{Version: version})
}

func (routes *Routes) PostReport(w http.ResponseWriter, r *http.Request) *AppError {
	var msg signing.SignedMessage
	if appErr := decodeJSON(r, &msg); appErr != nil {
		return appErr
	}
	version, err := routes.ledger.ReportQuestion(r.Context(), &msg)
	if err != nil {
		return appError(err)
	}
	return writeJSON(w, versionResponse{Version: version})
}

func (routes *Routes) GetQuestion(w http.ResponseWriter, r *http.Request) *AppError {
	id := models.QuestionID(chi.URLParam(r, "id"))
	state, err := routes.db.GetQuestion(r.Context(), id)
	if err != nil {
		return appError(err)
	}
	if state.Status == models.StatusCensored {
		return appError(models.ErrQuestionDoesNotExist)
	}
	return writeJSON(w, state)
}

func (routes *Routes) GetQuestions(w http.ResponseWriter, r *http.Request) *AppError {
	list, err := routes.db.ListQuestions(r.Context(), 50, 0)
	if err != nil {
		return appError(err)
	}
	return writeJSON(w, list)
}

func (routes *Routes) GetHistory(w http.ResponseWriter, r *http.Request) *AppError {
	id := models.QuestionID(chi.URLParam(r, "id"))
	history, err := routes.ledger.History(r.Context(), id)
	if err != nil {
		return appError(err)
	}
	return writeJSON(w, history)
}
