package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rigelview/obs-portal/internal/response"
	"github.com/rigelview/obs-portal/internal/validator"
)

func (app *application) reportServerError(r *http.Request, err error) {
	requestAttrs := slog.Group("request", "method", r.Method, "url", r.URL.String())
	app.baseLogger.Error(err.Error(), requestAttrs)
}

func (app *application) errorMessage(w http.ResponseWriter, r *http.Request, status int, message string, headers http.Header) {
	message = strings.ToUpper(message[:1]) + message[1:]

	err := response.JSONWithHeaders(w, status, response.JSONObject{"error": message}, headers)
	if err != nil {
		app.reportServerError(r, err)
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.reportServerError(r, err)

	message := "The server encountered a problem and could not process your request"
	app.errorMessage(w, r, http.StatusInternalServerError, message, nil)
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource could not be found"
	app.errorMessage(w, r, http.StatusNotFound, message, nil)
}

func (app *application) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("The %s method is not supported for this resource", r.Method)
	app.errorMessage(w, r, http.StatusMethodNotAllowed, message, nil)
}

func (app *application) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	app.errorMessage(w, r, http.StatusBadRequest, err.Error(), nil)
}

func (app *application) failedValidation(w http.ResponseWriter, r *http.Request, v validator.Validator) {
	err := response.JSON(w, http.StatusUnprocessableEntity, v)
	if err != nil {
		app.reportServerError(r, err)
	}
}

func (app *application) authenticationRequired(w http.ResponseWriter, r *http.Request) {
	headers := http.Header{"WWW-Authenticate": []string{"Bearer"}}
	app.errorMessage(w, r, http.StatusUnauthorized, "You must be authenticated to access this resource", headers)
}
