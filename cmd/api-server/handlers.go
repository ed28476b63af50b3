package main

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rigelview/obs-portal/internal/astro"
	"github.com/rigelview/obs-portal/internal/auth"
	"github.com/rigelview/obs-portal/internal/ctxstore"
	"github.com/rigelview/obs-portal/internal/database"
	"github.com/rigelview/obs-portal/internal/model"
	"github.com/rigelview/obs-portal/internal/request"
	"github.com/rigelview/obs-portal/internal/response"
	"github.com/rigelview/obs-portal/internal/schedule"
	"github.com/rigelview/obs-portal/internal/validator"
)

const _maxScheduleFileSize = 10 << 20

func (app *application) handleStatus(w http.ResponseWriter, r *http.Request) {
	if err := response.JSON(w, http.StatusOK, response.JSONObject{"status": "OK"}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleListInstitutions(w http.ResponseWriter, r *http.Request) {
	dao := database.NewInstitutionDAO(app.requestLogger(r), app.db)

	institutions, err := dao.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"institutions": institutions}); err != nil {
		app.serverError(w, r, err)
	}
}

type requestRegister struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	Email       string  `json:"email"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Institution *string `json:"institution,omitempty"`
}

func (app *application) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.requestLogger(r)

	var input requestRegister
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRegister(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	users := database.NewUserDAO(logger, app.db)
	institutions := database.NewInstitutionDAO(logger, app.db)

	institutionCode := "R"
	if input.Institution != nil {
		code, err := institutions.CodeFor(ctx, *input.Institution)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				app.errorMessage(w, r, http.StatusUnprocessableEntity, "unknown institution", nil)
				return
			}

			app.serverError(w, r, err)
			return
		}
		institutionCode = code
	}

	existingCodes, err := users.ObserverCodes(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	observerCode, err := auth.GenerateObserverCode(institutionCode, input.FirstName, input.LastName, existingCodes)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	userID, err := users.Insert(ctx, database.InsertUserDTO{
		Username:     input.Username,
		PasswordHash: passwordHash,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Institution:  input.Institution,
		ObserverCode: observerCode,
	})
	if err != nil {
		if errors.Is(err, model.ErrExists) {
			app.errorMessage(w, r, http.StatusConflict, err.Error(), nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	user, err := users.Get(ctx, userID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, response.JSONObject{"user": user}); err != nil {
		app.serverError(w, r, err)
	}
}

type requestLogin struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (app *application) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.requestLogger(r)

	var input requestLogin
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	v.Check(validator.NotBlank(input.Identifier), "Identifier cannot be blank")
	v.Check(validator.NotBlank(input.Password), "Password cannot be blank")
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	users := database.NewUserDAO(logger, app.db)

	user, err := users.GetByIdentifier(ctx, input.Identifier)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.invalidCredentials(w, r)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if !auth.CheckPassword(input.Password, user.PasswordHash) {
		app.invalidCredentials(w, r)
		return
	}

	token, err := app.sessions.StartSession(ctx, user.ID, auth.DefaultSessionDuration)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	payload := response.JSONObject{
		"token":        token,
		"userId":       user.ID,
		"observerCode": user.ObserverCode,
	}
	if err := response.JSON(w, http.StatusOK, payload); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) invalidCredentials(w http.ResponseWriter, r *http.Request) {
	app.errorMessage(w, r, http.StatusUnauthorized, "Invalid identifier or password", nil)
}

func (app *application) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessions.EndSession(r.Context(), bearerToken(r)); err != nil {
		app.serverError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type requestChangePassword struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (app *application) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromRequest(r)

	var input requestChangePassword
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	v.CheckField(validator.MinRunes(input.NewPassword, 8), "newPassword", "must be at least 8 characters")
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	users := database.NewUserDAO(app.requestLogger(r), app.db)

	user, err := users.Get(ctx, identity.UserID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if !auth.CheckPassword(input.CurrentPassword, user.PasswordHash) {
		app.invalidCredentials(w, r)
		return
	}

	passwordHash, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		app.serverError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) handleSubmitObservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromRequest(r)

	var input requestSubmitObservation
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateSubmitObservation(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := app.observationDAO(r)

	outcome, id, err := dao.Add(ctx, identity.ObserverCode, input.toDTO())
	if err != nil {
		if errors.Is(err, astro.ErrOutOfRange) || errors.Is(err, astro.ErrMalformed) || errors.Is(err, model.ErrInvalid) {
			app.badRequest(w, r, err)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if outcome == database.OutcomeDuplicate {
		app.errorMessage(w, r, http.StatusConflict,
			"An identical observation request already exists; edit the existing request instead", nil)
		return
	}

	obs, err := dao.Get(ctx, id)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, response.JSONObject{"observation": obs}); err != nil {
		app.serverError(w, r, err)
	}
}

// handleUploadSchedule accepts a multipart schedule file, spools it next to
// the server, parses it and feeds the result to the batch path. The spooled
// copy is deleted before the response goes out.
func (app *application) handleUploadSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromRequest(r)

	if err := r.ParseMultipartForm(_maxScheduleFileSize); err != nil {
		app.badRequest(w, r, err)
		return
	}

	file, header, err := r.FormFile("schedule")
	if err != nil {
		app.badRequest(w, r, errors.New("missing schedule file upload"))
		return
	}
	defer file.Close()

	// A unique spool per request; the original extension survives so the
	// parser can dispatch on it.
	dst, err := os.CreateTemp(app.config.uploadDir, "schedule-*"+filepath.Ext(header.Filename))
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	path := dst.Name()
	defer os.Remove(path)

	_, err = io.Copy(dst, file)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	parser := schedule.NewParser(app.requestLogger(r))

	parsed, err := parser.ParseFile(path)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrUnsupportedFormat),
			errors.Is(err, schedule.ErrBadFormat),
			errors.Is(err, schedule.ErrEmptyFile),
			errors.Is(err, schedule.ErrMissingField):
			app.badRequest(w, r, err)
		default:
			app.serverError(w, r, err)
		}
		return
	}

	result, err := app.observationDAO(r).AddBatch(ctx, identity.ObserverCode, toInsertDTOs(parsed))
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	payload := response.JSONObject{
		"parsed":    len(parsed),
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}
	if err := response.JSON(w, http.StatusCreated, payload); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleListObservations(w http.ResponseWriter, r *http.Request) {
	identity := identityFromRequest(r)

	observations, err := app.observationDAO(r).ListByObserver(r.Context(), identity.ObserverCode)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"observations": observations}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleEditObservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromRequest(r)

	requestID, err := requestIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	var input requestEditObservation
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	if input.Status != nil {
		validateStatus(&v, *input.Status)
	}
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := app.observationDAO(r)

	// Observers may only edit their own requests.
	existing, err := dao.Get(ctx, requestID)
	if err != nil || existing.ObserverCode != identity.ObserverCode {
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			app.serverError(w, r, err)
			return
		}

		app.notFound(w, r)
		return
	}

	if err := dao.Update(ctx, requestID, input.toDTO()); err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			app.notFound(w, r)
		case errors.Is(err, astro.ErrOutOfRange), errors.Is(err, astro.ErrMalformed),
			errors.Is(err, model.ErrInvalid):
			app.badRequest(w, r, err)
		default:
			app.serverError(w, r, err)
		}
		return
	}

	obs, err := dao.Get(ctx, requestID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"observation": obs}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) observationDAO(r *http.Request) *database.ObservationDAO {
	return database.NewObservationDAO(app.requestLogger(r), app.db, database.StandardDefaults())
}

func (app *application) requestLogger(r *http.Request) *slog.Logger {
	return app.baseLogger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](r.Context(), _traceIDKey),
	)
}
