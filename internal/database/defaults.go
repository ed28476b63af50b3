package database

import "github.com/rigelview/obs-portal/internal/model"

// Defaults is the immutable set of fallback values merged over every
// incoming observation request. It is fixed at DAO construction; there is
// no process-wide mutable state.
type Defaults struct {
	ObservationType string
	Priority        string
	Status          string
	NExp            int
	ExposureTime    int
	Reposition      bool
	RepositionX     int
	RepositionY     int
}

func StandardDefaults() Defaults {
	return Defaults{
		ObservationType: "default",
		Priority:        "normal",
		Status:          model.StatusPending,
		NExp:            1,
		ExposureTime:    1,
		Reposition:      false,
		RepositionX:     1024,
		RepositionY:     1024,
	}
}

// mergeDefaults folds an insert DTO over the defaults, producing the full
// row to be checked for duplication and stored. Coordinates are already
// normalized by the caller. Pure; no database access.
func mergeDefaults(defaults Defaults, observerCode string, dto InsertObservationDTO, raHours, decDegrees float64, targetName string) model.Observation {
	obs := model.Observation{
		ObserverCode:    observerCode,
		TargetName:      targetName,
		RA:              raHours,
		Dec:             decDegrees,
		ObservationType: defaults.ObservationType,
		Priority:        defaults.Priority,
		Status:          defaults.Status,
		NExp:            defaults.NExp,
		ExposureTime:    defaults.ExposureTime,
		Reposition:      defaults.Reposition,
		RepositionX:     defaults.RepositionX,
		RepositionY:     defaults.RepositionY,

		Filters: dto.Filters,
		BatchID: dto.BatchID,
		Cadence: dto.Cadence,
		Readout: dto.Readout,

		UTCStartTime: dto.UTCStartTime,
		UTCStartDate: dto.UTCStartDate,
		UTCEndTime:   dto.UTCEndTime,
		UTCEndDate:   dto.UTCEndDate,
		LSTStartTime: dto.LSTStartTime,
		LSTStartDate: dto.LSTStartDate,
		LSTEndTime:   dto.LSTEndTime,
		LSTEndDate:   dto.LSTEndDate,
	}

	if dto.ObservationType != nil {
		obs.ObservationType = *dto.ObservationType
	}
	if dto.Priority != nil {
		obs.Priority = *dto.Priority
	}
	if dto.Status != nil {
		obs.Status = *dto.Status
	}
	if dto.NExp != nil {
		obs.NExp = *dto.NExp
	}
	if dto.ExposureTime != nil {
		obs.ExposureTime = *dto.ExposureTime
	}
	if dto.Reposition != nil {
		obs.Reposition = *dto.Reposition
	}
	if dto.RepositionX != nil {
		obs.RepositionX = *dto.RepositionX
	}
	if dto.RepositionY != nil {
		obs.RepositionY = *dto.RepositionY
	}

	return obs
}
