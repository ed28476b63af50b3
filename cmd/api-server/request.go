package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rigelview/obs-portal/internal/database"
	"github.com/rigelview/obs-portal/internal/model"
	"github.com/rigelview/obs-portal/internal/schedule"
)

func requestIDFromRequest(r *http.Request) (model.ID, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "requestId"), 10, 64)
	return model.ID(id), err
}

// requestSubmitObservation is a single observation submission. Everything
// beyond the coordinates is optional and handled by the store defaults.
type requestSubmitObservation struct {
	TargetName      *string `json:"targetName,omitempty"`
	RA              string  `json:"ra"`
	Dec             string  `json:"dec"`
	ObservationType *string `json:"observationType,omitempty"`
	Filters         *string `json:"filters,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	NExp            *int    `json:"nexp,omitempty"`
	ExposureTime    *int    `json:"exposureTime,omitempty"`
	Reposition      *bool   `json:"reposition,omitempty"`
	RepositionX     *int    `json:"repositionX,omitempty"`
	RepositionY     *int    `json:"repositionY,omitempty"`
	BatchID         *int64  `json:"batchId,omitempty"`
	Cadence         *string `json:"cadence,omitempty"`
	Readout         *string `json:"readout,omitempty"`
	UTCStartTime    *string `json:"utcStartTime,omitempty"`
	UTCStartDate    *string `json:"utcStartDate,omitempty"`
	UTCEndTime      *string `json:"utcEndTime,omitempty"`
	UTCEndDate      *string `json:"utcEndDate,omitempty"`
	LSTStartTime    *string `json:"lstStartTime,omitempty"`
	LSTStartDate    *string `json:"lstStartDate,omitempty"`
	LSTEndTime      *string `json:"lstEndTime,omitempty"`
	LSTEndDate      *string `json:"lstEndDate,omitempty"`
}

func (req requestSubmitObservation) toDTO() database.InsertObservationDTO {
	return database.InsertObservationDTO{
		TargetName:      req.TargetName,
		RA:              req.RA,
		Dec:             req.Dec,
		ObservationType: req.ObservationType,
		Filters:         req.Filters,
		Priority:        req.Priority,
		NExp:            req.NExp,
		ExposureTime:    req.ExposureTime,
		Reposition:      req.Reposition,
		RepositionX:     req.RepositionX,
		RepositionY:     req.RepositionY,
		BatchID:         req.BatchID,
		Cadence:         req.Cadence,
		Readout:         req.Readout,
		UTCStartTime:    req.UTCStartTime,
		UTCStartDate:    req.UTCStartDate,
		UTCEndTime:      req.UTCEndTime,
		UTCEndDate:      req.UTCEndDate,
		LSTStartTime:    req.LSTStartTime,
		LSTStartDate:    req.LSTStartDate,
		LSTEndTime:      req.LSTEndTime,
		LSTEndDate:      req.LSTEndDate,
	}
}

type requestEditObservation struct {
	TargetName      *string `json:"targetName,omitempty"`
	RA              *string `json:"ra,omitempty"`
	Dec             *string `json:"dec,omitempty"`
	ObservationType *string `json:"observationType,omitempty"`
	Filters         *string `json:"filters,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	Status          *string `json:"status,omitempty"`
	NExp            *int    `json:"nexp,omitempty"`
	ExposureTime    *int    `json:"exposureTime,omitempty"`
	Reposition      *bool   `json:"reposition,omitempty"`
	RepositionX     *int    `json:"repositionX,omitempty"`
	RepositionY     *int    `json:"repositionY,omitempty"`
	Cadence         *string `json:"cadence,omitempty"`
	Readout         *string `json:"readout,omitempty"`
	UTCStartTime    *string `json:"utcStartTime,omitempty"`
	UTCStartDate    *string `json:"utcStartDate,omitempty"`
	UTCEndTime      *string `json:"utcEndTime,omitempty"`
	UTCEndDate      *string `json:"utcEndDate,omitempty"`
	LSTStartTime    *string `json:"lstStartTime,omitempty"`
	LSTStartDate    *string `json:"lstStartDate,omitempty"`
	LSTEndTime      *string `json:"lstEndTime,omitempty"`
	LSTEndDate      *string `json:"lstEndDate,omitempty"`
}

func (req requestEditObservation) toDTO() database.UpdateObservationDTO {
	return database.UpdateObservationDTO{
		TargetName:      req.TargetName,
		RA:              req.RA,
		Dec:             req.Dec,
		ObservationType: req.ObservationType,
		Filters:         req.Filters,
		Priority:        req.Priority,
		Status:          req.Status,
		NExp:            req.NExp,
		ExposureTime:    req.ExposureTime,
		Reposition:      req.Reposition,
		RepositionX:     req.RepositionX,
		RepositionY:     req.RepositionY,
		Cadence:         req.Cadence,
		Readout:         req.Readout,
		UTCStartTime:    req.UTCStartTime,
		UTCStartDate:    req.UTCStartDate,
		UTCEndTime:      req.UTCEndTime,
		UTCEndDate:      req.UTCEndDate,
		LSTStartTime:    req.LSTStartTime,
		LSTStartDate:    req.LSTStartDate,
		LSTEndTime:      req.LSTEndTime,
		LSTEndDate:      req.LSTEndDate,
	}
}

// toInsertDTOs lifts parsed schedule records into the store's insert shape.
func toInsertDTOs(parsed []schedule.Observation) []database.InsertObservationDTO {
	dtos := make([]database.InsertObservationDTO, 0, len(parsed))

	for _, obs := range parsed {
		dto := database.InsertObservationDTO{
			RA:              obs.RA,
			Dec:             obs.Dec,
			ObservationType: obs.ObservationType,
			Filters:         obs.Filters,
			Priority:        obs.Priority,
			NExp:            obs.NExp,
			ExposureTime:    obs.ExposureTime,
			Cadence:         obs.Cadence,
			Readout:         obs.Readout,
			UTCStartTime:    obs.UTCStartTime,
			UTCStartDate:    obs.UTCStartDate,
			UTCEndTime:      obs.UTCEndTime,
			UTCEndDate:      obs.UTCEndDate,
			LSTStartTime:    obs.LSTStartTime,
			LSTStartDate:    obs.LSTStartDate,
			LSTEndTime:      obs.LSTEndTime,
			LSTEndDate:      obs.LSTEndDate,
			Group:           obs.Group,
		}
		if obs.TargetName != "" {
			name := obs.TargetName
			dto.TargetName = &name
		}

		dtos = append(dtos, dto)
	}

	return dtos
}
