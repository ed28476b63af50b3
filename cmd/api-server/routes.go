package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (app *application) routes() http.Handler {
	mux := chi.NewRouter()

	mux.NotFound(app.notFound)
	mux.MethodNotAllowed(app.methodNotAllowed)

	mux.Use(app.traceID)
	mux.Use(app.logAccess)
	mux.Use(app.recoverPanic)

	mux.Use(app.CORS)

	mux.Get("/api/v1/status", app.handleStatus)
	mux.Get("/api/v1/institutions", app.handleListInstitutions)

	mux.Post("/api/v1/auth/register", app.handleRegister)
	mux.Post("/api/v1/auth/login", app.handleLogin)

	mux.Group(func(mux chi.Router) {
		mux.Use(app.authenticate)

		mux.Post("/api/v1/auth/logout", app.handleLogout)
		mux.Put("/api/v1/account/password", app.handleChangePassword)

		mux.Post("/api/v1/observations", app.handleSubmitObservation)
		mux.Post("/api/v1/observations/schedule", app.handleUploadSchedule)
		mux.Get("/api/v1/observations", app.handleListObservations)
		mux.Patch("/api/v1/observations/{requestId}", app.handleEditObservation)
	})

	return mux
}
