package main

import (
	"github.com/rigelview/obs-portal/internal/model"
	"github.com/rigelview/obs-portal/internal/validator"
)

// Validation rules

func validateRegister(v *validator.Validator, req requestRegister) {
	v.CheckField(validator.NotBlank(req.Username), "username", "cannot be blank")
	v.CheckField(validator.MaxRunes(req.Username, 64), "username", "must not exceed 64 characters")
	v.CheckField(validator.MinRunes(req.Password, 8), "password", "must be at least 8 characters")
	v.CheckField(validator.IsEmail(req.Email), "email", "must be a valid email address")
	v.CheckField(validator.NotBlank(req.FirstName), "firstName", "cannot be blank")
	v.CheckField(validator.NotBlank(req.LastName), "lastName", "cannot be blank")
}

func validateSubmitObservation(v *validator.Validator, req requestSubmitObservation) {
	v.CheckField(validator.NotBlank(req.RA), "ra", "cannot be blank")
	v.CheckField(validator.NotBlank(req.Dec), "dec", "cannot be blank")

	if req.NExp != nil {
		v.CheckField(*req.NExp > 0, "nexp", "must be a positive integer")
	}
	if req.ExposureTime != nil {
		v.CheckField(*req.ExposureTime > 0, "exposureTime", "must be a positive integer")
	}
	if req.Priority != nil {
		v.CheckField(validator.In(*req.Priority, "low", "normal", "high"), "priority",
			"must be one of low, normal or high")
	}
	if req.RepositionX != nil {
		v.CheckField(validator.Between(*req.RepositionX, 0, 4096), "repositionX", "must be within the detector")
	}
	if req.RepositionY != nil {
		v.CheckField(validator.Between(*req.RepositionY, 0, 4096), "repositionY", "must be within the detector")
	}
}

func validateStatus(v *validator.Validator, status string) {
	v.CheckField(
		validator.In(status, model.StatusPending, model.StatusScheduled, model.StatusCompleted, model.StatusFailed),
		"status",
		"must be one of pending, scheduled, completed or failed",
	)
}
