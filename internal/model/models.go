package model

import "time"

type ID = int64

// Observation statuses. A request only ever moves forward through
// pending -> scheduled -> completed, or drops to failed.
const (
	StatusPending   = "pending"
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type User struct {
	ID        ID        `json:"id" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	Username     string  `json:"username" db:"username"`
	PasswordHash string  `json:"-" db:"password_hash"`
	Email        string  `json:"email" db:"email"`
	FirstName    string  `json:"firstName" db:"first_name"`
	LastName     string  `json:"lastName" db:"last_name"`
	Institution  *string `json:"institution,omitempty" db:"institution"`
	ObserverCode string  `json:"observerCode" db:"observer_code"`
}

type Institution struct {
	Name string `json:"name" db:"name"`
	Code string `json:"code" db:"code"`
}

// Observation is one persisted observation request. Optional columns are
// pointers so that absence survives the round trip to the database; two
// requests with the same fields absent compare as duplicates.
type Observation struct {
	ID          ID        `json:"requestId" db:"request_id"`
	SubmittedOn time.Time `json:"submittedOn" db:"submitted_on"`

	ObserverCode string  `json:"observerCode" db:"observer_code"`
	TargetName   string  `json:"targetName" db:"target_name"`
	RA           float64 `json:"ra" db:"ra"`
	Dec          float64 `json:"dec" db:"dec"`

	ObservationType string  `json:"observationType" db:"observation_type"`
	Filters         *string `json:"filters,omitempty" db:"filters"`
	Priority        string  `json:"priority" db:"priority"`
	Status          string  `json:"status" db:"status"`
	NExp            int     `json:"nexp" db:"nexp"`
	ExposureTime    int     `json:"exposureTime" db:"exposure_time"`

	Reposition  bool `json:"reposition" db:"reposition"`
	RepositionX int  `json:"repositionX" db:"reposition_x"`
	RepositionY int  `json:"repositionY" db:"reposition_y"`

	BatchID *int64  `json:"batchId,omitempty" db:"batch_id"`
	Cadence *string `json:"cadence,omitempty" db:"cadence"`
	Readout *string `json:"readout,omitempty" db:"readout"`

	UTCStartTime *string `json:"utcStartTime,omitempty" db:"utc_start_time"`
	UTCStartDate *string `json:"utcStartDate,omitempty" db:"utc_start_date"`
	UTCEndTime   *string `json:"utcEndTime,omitempty" db:"utc_end_time"`
	UTCEndDate   *string `json:"utcEndDate,omitempty" db:"utc_end_date"`
	LSTStartTime *string `json:"lstStartTime,omitempty" db:"lst_start_time"`
	LSTStartDate *string `json:"lstStartDate,omitempty" db:"lst_start_date"`
	LSTEndTime   *string `json:"lstEndTime,omitempty" db:"lst_end_time"`
	LSTEndDate   *string `json:"lstEndDate,omitempty" db:"lst_end_date"`
}

type Session struct {
	Token     string    `json:"-" db:"session_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`

	User         ID     `json:"userId" db:"user_id"`
	ObserverCode string `json:"observerCode" db:"observer_code"`
}
