package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/rigelview/obs-portal/internal/astro"
	"github.com/rigelview/obs-portal/internal/model"
)

// Outcome reports what happened to a single submitted request. A duplicate
// is a normal negative outcome, not an error.
type Outcome int

const (
	OutcomeInserted Outcome = iota + 1
	OutcomeDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

type BatchResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type ObservationDAO struct {
	Logger   *slog.Logger
	Defaults Defaults
	*DB
}

func NewObservationDAO(logger *slog.Logger, db *DB, defaults Defaults) *ObservationDAO {
	return &ObservationDAO{
		Logger:   logger.With("dao", "observation"),
		Defaults: defaults,
		DB:       db,
	}
}

// InsertObservationDTO carries one submitted request. RA and Dec are the
// raw observer-supplied strings; every other field falls back to the DAO
// defaults when nil. Group is the raw token of a schedule-file "group <n>"
// directive and is resolved to a composite batch id on the batch path.
type InsertObservationDTO struct {
	TargetName *string
	RA         string
	Dec        string

	ObservationType *string
	Filters         *string
	Priority        *string
	Status          *string
	NExp            *int
	ExposureTime    *int

	Reposition  *bool
	RepositionX *int
	RepositionY *int

	BatchID *int64
	Cadence *string
	Readout *string

	UTCStartTime *string
	UTCStartDate *string
	UTCEndTime   *string
	UTCEndDate   *string
	LSTStartTime *string
	LSTStartDate *string
	LSTEndTime   *string
	LSTEndDate   *string

	Group *string
}

// Add stores a single request in its own transaction. The duplicate check
// and the insert run under the observations write lock so two identical
// concurrent submissions cannot both pass the check.
func (dao *ObservationDAO) Add(ctx context.Context, observerCode string, dto InsertObservationDTO) (Outcome, model.ID, error) {
	tx, err := dao.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	if err := dao.lockObservations(ctx, tx); err != nil {
		return 0, 0, err
	}

	outcome, id, err := dao.addTx(ctx, tx, observerCode, dto)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}

	return outcome, id, nil
}

// AddBatch stages every request in one transaction and commits them
// together. Duplicates and invalid records are skipped and counted, never
// fatal; any hard storage error rolls the whole batch back.
func (dao *ObservationDAO) AddBatch(ctx context.Context, observerCode string, dtos []InsertObservationDTO) (BatchResult, error) {
	logger := dao.Logger.With("query", "addBatch", "observerCode", observerCode)

	var result BatchResult

	tx, err := dao.BeginTxx(ctx, nil)
	if err != nil {
		return result, err
	}
	defer tx.Rollback()

	if err := dao.lockObservations(ctx, tx); err != nil {
		return result, err
	}

	// One allocator value per distinct group token, so every line of a
	// "group <n>" block lands under the same composite batch id.
	groupBatchIDs := make(map[string]int64)

	for i, dto := range dtos {
		if dto.Group != nil && dto.BatchID == nil {
			batchID, err := dao.resolveGroup(ctx, tx, groupBatchIDs, *dto.Group)
			if err != nil {
				return BatchResult{}, err
			}
			dto.BatchID = &batchID
		}

		outcome, _, err := dao.addTx(ctx, tx, observerCode, dto)
		if err != nil {
			if isRecordError(err) {
				logger.Warn("invalid observation request skipped", "index", i, "error", err)
				result.Failed++
				continue
			}

			logger.Warn("batch aborted", "index", i, "error", err)
			return BatchResult{}, err
		}

		if outcome == OutcomeInserted {
			result.Succeeded++
		} else {
			logger.Info("duplicate observation request skipped", "index", i)
			result.Failed++
		}
	}

	if err := tx.Commit(); err != nil {
		return BatchResult{}, err
	}

	logger.Debug("batch committed", "succeeded", result.Succeeded, "failed", result.Failed)

	return result, nil
}

// isRecordError reports whether an insert failure is local to the one
// record that caused it. Batch processing counts and skips such records;
// anything else is a storage fault and aborts the whole batch.
func isRecordError(err error) bool {
	return errors.Is(err, astro.ErrMalformed) ||
		errors.Is(err, astro.ErrOutOfRange) ||
		errors.Is(err, model.ErrInvalid)
}

// addTx merges, normalizes, checks for duplication and inserts one row
// inside the caller's transaction. Nothing is durable until the caller
// commits.
func (dao *ObservationDAO) addTx(ctx context.Context, tx *sqlx.Tx, observerCode string, dto InsertObservationDTO) (Outcome, model.ID, error) {
	logger := dao.Logger.With("query", "add", "observerCode", observerCode)

	raHours, decDegrees, err := astro.Normalize(dto.RA, dto.Dec)
	if err != nil {
		return 0, 0, err
	}

	targetName := astro.DefaultTargetName(raHours, decDegrees)
	if dto.TargetName != nil && *dto.TargetName != "" {
		targetName = *dto.TargetName
	}

	obs := mergeDefaults(dao.Defaults, observerCode, dto, raHours, decDegrees, targetName)

	// Schedule-file records reach here unvalidated.
	if obs.NExp <= 0 {
		return 0, 0, fmt.Errorf("nexp %d must be a positive integer: %w", obs.NExp, model.ErrInvalid)
	}
	if obs.ExposureTime <= 0 {
		return 0, 0, fmt.Errorf("exposure_time %d must be a positive integer: %w", obs.ExposureTime, model.ErrInvalid)
	}

	duplicate, err := dao.isDuplicate(ctx, tx, obs)
	if err != nil {
		return 0, 0, err
	}
	if duplicate {
		return OutcomeDuplicate, 0, nil
	}

	if obs.BatchID == nil {
		batchID, err := dao.NextBatchID(ctx, tx)
		if err != nil {
			return 0, 0, err
		}
		obs.BatchID = &batchID
	}

	query, args, err := dao.Builder.
		Insert("observations").
		Columns(
			"observer_code", "target_name", "ra", "dec",
			"observation_type", "filters", "priority", "status",
			"nexp", "exposure_time",
			"reposition", "reposition_x", "reposition_y",
			"batch_id", "cadence", "readout",
			"utc_start_time", "utc_start_date", "utc_end_time", "utc_end_date",
			"lst_start_time", "lst_start_date", "lst_end_time", "lst_end_date",
		).
		Values(
			obs.ObserverCode, obs.TargetName, obs.RA, obs.Dec,
			obs.ObservationType, obs.Filters, obs.Priority, obs.Status,
			obs.NExp, obs.ExposureTime,
			obs.Reposition, obs.RepositionX, obs.RepositionY,
			obs.BatchID, obs.Cadence, obs.Readout,
			obs.UTCStartTime, obs.UTCStartDate, obs.UTCEndTime, obs.UTCEndDate,
			obs.LSTStartTime, obs.LSTStartDate, obs.LSTEndTime, obs.LSTEndDate,
		).
		Suffix("RETURNING request_id").
		ToSql()
	if err != nil {
		return 0, 0, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var id model.ID
	row := tx.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&id); err != nil {
		logger.Warn("failed query execute", "error", err)
		return 0, 0, err
	}

	return OutcomeInserted, id, nil
}

// nullable unwraps an optional field for squirrel.Eq: an untyped nil
// renders as IS NULL, giving the NULL-safe equality absent fields need. A
// typed nil pointer would render as "= NULL" and never match.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// isDuplicate compares the candidate against every stored request for the
// observer across the full field tuple. Both-absent optional fields count
// as equal; absent vs present counts as different.
func (dao *ObservationDAO) isDuplicate(ctx context.Context, q Querier, obs model.Observation) (bool, error) {
	query, args, err := dao.Builder.
		Select("COUNT(*)").
		From("observations").
		Where(squirrel.Eq{
			"observer_code":    obs.ObserverCode,
			"ra":               obs.RA,
			"dec":              obs.Dec,
			"target_name":      obs.TargetName,
			"observation_type": obs.ObservationType,
			"filters":          nullable(obs.Filters),
			"nexp":             obs.NExp,
			"exposure_time":    obs.ExposureTime,
			"priority":         obs.Priority,
			"status":           obs.Status,
			"reposition":       obs.Reposition,
			"reposition_x":     obs.RepositionX,
			"reposition_y":     obs.RepositionY,
			"cadence":          nullable(obs.Cadence),
			"utc_start_time":   nullable(obs.UTCStartTime),
			"utc_start_date":   nullable(obs.UTCStartDate),
			"utc_end_time":     nullable(obs.UTCEndTime),
			"utc_end_date":     nullable(obs.UTCEndDate),
			"lst_start_time":   nullable(obs.LSTStartTime),
			"lst_start_date":   nullable(obs.LSTStartDate),
			"lst_end_time":     nullable(obs.LSTEndTime),
			"lst_end_date":     nullable(obs.LSTEndDate),
		}).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	row := q.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

// NextBatchID allocates the next group identifier: one greater than the
// current maximum, 1 for an empty table. Must run inside the same
// transaction as the insert it serves.
func (dao *ObservationDAO) NextBatchID(ctx context.Context, q Querier) (int64, error) {
	var next int64
	row := q.QueryRowxContext(ctx, "SELECT COALESCE(MAX(batch_id), 0) + 1 FROM observations")
	if err := row.Scan(&next); err != nil {
		return 0, err
	}

	return next, nil
}

// resolveGroup maps a schedule-file group token to a composite batch id:
// a freshly allocated base id with the token digits appended.
func (dao *ObservationDAO) resolveGroup(ctx context.Context, tx *sqlx.Tx, cache map[string]int64, token string) (int64, error) {
	if id, ok := cache[token]; ok {
		return id, nil
	}

	base, err := dao.NextBatchID(ctx, tx)
	if err != nil {
		return 0, err
	}

	composite, err := strconv.ParseInt(fmt.Sprintf("%d%s", base, token), 10, 64)
	if err != nil {
		dao.Logger.Warn("non-numeric group token, using bare batch id", "token", token)
		composite = base
	}

	cache[token] = composite
	return composite, nil
}

// UpdateObservationDTO is a typed partial update; only non-nil fields are
// written. RA and Dec must be updated together so the row stays normalized.
type UpdateObservationDTO struct {
	TargetName      *string
	RA              *string
	Dec             *string
	ObservationType *string
	Filters         *string
	Priority        *string
	Status          *string
	NExp            *int
	ExposureTime    *int
	Reposition      *bool
	RepositionX     *int
	RepositionY     *int
	BatchID         *int64
	Cadence         *string
	Readout         *string
	UTCStartTime    *string
	UTCStartDate    *string
	UTCEndTime      *string
	UTCEndDate      *string
	LSTStartTime    *string
	LSTStartDate    *string
	LSTEndTime      *string
	LSTEndDate      *string
}

func (dto UpdateObservationDTO) setMap() (map[string]any, error) {
	data := make(map[string]any)

	if (dto.RA == nil) != (dto.Dec == nil) {
		return nil, fmt.Errorf("ra and dec must be updated together: %w", astro.ErrMalformed)
	}
	if dto.NExp != nil && *dto.NExp <= 0 {
		return nil, fmt.Errorf("nexp %d must be a positive integer: %w", *dto.NExp, model.ErrInvalid)
	}
	if dto.ExposureTime != nil && *dto.ExposureTime <= 0 {
		return nil, fmt.Errorf("exposure_time %d must be a positive integer: %w", *dto.ExposureTime, model.ErrInvalid)
	}
	if dto.RA != nil {
		raHours, decDegrees, err := astro.Normalize(*dto.RA, *dto.Dec)
		if err != nil {
			return nil, err
		}
		data["ra"] = raHours
		data["dec"] = decDegrees
	}

	setString := func(column string, value *string) {
		if value != nil {
			data[column] = *value
		}
	}
	setInt := func(column string, value *int) {
		if value != nil {
			data[column] = *value
		}
	}

	setString("target_name", dto.TargetName)
	setString("observation_type", dto.ObservationType)
	setString("filters", dto.Filters)
	setString("priority", dto.Priority)
	setString("status", dto.Status)
	setInt("nexp", dto.NExp)
	setInt("exposure_time", dto.ExposureTime)
	if dto.Reposition != nil {
		data["reposition"] = *dto.Reposition
	}
	setInt("reposition_x", dto.RepositionX)
	setInt("reposition_y", dto.RepositionY)
	if dto.BatchID != nil {
		data["batch_id"] = *dto.BatchID
	}
	setString("cadence", dto.Cadence)
	setString("readout", dto.Readout)
	setString("utc_start_time", dto.UTCStartTime)
	setString("utc_start_date", dto.UTCStartDate)
	setString("utc_end_time", dto.UTCEndTime)
	setString("utc_end_date", dto.UTCEndDate)
	setString("lst_start_time", dto.LSTStartTime)
	setString("lst_start_date", dto.LSTStartDate)
	setString("lst_end_time", dto.LSTEndTime)
	setString("lst_end_date", dto.LSTEndDate)

	return data, nil
}

// Update applies a partial update to exactly one row. An empty update set
// is a no-op; an unknown id is model.ErrNotFound.
func (dao *ObservationDAO) Update(ctx context.Context, id model.ID, dto UpdateObservationDTO) error {
	logger := dao.Logger.With("query", "update")

	data, err := dto.setMap()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		logger.Debug("empty update set, skipping", "updateId", id)
		return nil
	}

	query, args, err := dao.Builder.
		Update("observations").
		SetMap(data).
		Where(squirrel.Eq{"request_id": id}).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query, "args", args)

	result, err := dao.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Warn("failed query execute", "error", err)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.NewError("observation", model.ErrNotFound)
	}

	logger.Debug("success query execute", "updateId", id, "countUpdatedFields", len(data))

	return nil
}

func (dao *ObservationDAO) Get(ctx context.Context, id model.ID) (model.Observation, error) {
	query, args, err := dao.Builder.
		Select("*").
		From("observations").
		Where(squirrel.Eq{"request_id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Observation{}, err
	}

	var obs model.Observation
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&obs); err != nil {
		if IsNoRows(err) {
			return model.Observation{}, model.NewError("observation", model.ErrNotFound)
		}

		return model.Observation{}, err
	}

	return obs, nil
}

// List returns a snapshot of all stored requests ordered by request id.
func (dao *ObservationDAO) List(ctx context.Context) ([]model.Observation, error) {
	return dao.list(ctx, squirrel.Eq{})
}

func (dao *ObservationDAO) ListByObserver(ctx context.Context, observerCode string) ([]model.Observation, error) {
	return dao.list(ctx, squirrel.Eq{"observer_code": observerCode})
}

func (dao *ObservationDAO) list(ctx context.Context, where squirrel.Eq) ([]model.Observation, error) {
	logger := dao.Logger.With("query", "list")

	builder := dao.Builder.
		Select("*").
		From("observations").
		OrderBy("request_id ASC")
	if len(where) > 0 {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return []model.Observation{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	observations := make([]model.Observation, 0)
	if err := dao.SelectContext(ctx, &observations, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)
		return []model.Observation{}, err
	}

	logger.Debug("success query execute", "countObservations", len(observations))

	return observations, nil
}
