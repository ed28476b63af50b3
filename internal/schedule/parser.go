// Package schedule turns externally authored schedule files into canonical
// observation records. It never touches storage; callers feed the result to
// the observation DAO's batch path.
package schedule

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported schedule format")
	ErrBadFormat         = errors.New("malformed schedule file")
	ErrEmptyFile         = errors.New("no valid observations in file")
	ErrMissingField      = errors.New("missing required field")

	// ErrMissingTargetName is fatal for line-oriented files: without the
	// quoted name there is no way to tell where one record ends.
	ErrMissingTargetName = fmt.Errorf("target name: %w", ErrMissingField)
)

// Observation is one parsed record, the same shape as a stored request
// minus everything the server assigns. Group carries the raw token of a
// "group <n>" directive; the store combines it with a freshly allocated
// batch id at insert time.
type Observation struct {
	TargetName      string
	RA              string
	Dec             string
	ObservationType *string
	Filters         *string
	Priority        *string
	NExp            *int
	ExposureTime    *int
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
	Group           *string
}

type Parser struct {
	Logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	return &Parser{Logger: logger.With("module", "schedule")}
}

// ParseFile dispatches on the file extension. Tabular files must be well
// formed as a whole; in line-oriented files a bad line is skipped with a
// warning and never sinks the rest.
func (p *Parser) ParseFile(path string) ([]Observation, error) {
	var (
		observations []Observation
		err          error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".ecsv":
		observations, err = p.parseTabular(path)
	case ".sch", ".txt":
		observations, err = p.parseLines(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	if len(observations) == 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrEmptyFile)
	}

	return observations, nil
}

func (p *Parser) parseTabular(path string) ([]Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	// ECSV prefixes the CSV payload with a "# ..." metadata header.
	reader.Comment = '#'

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", filepath.Base(path), ErrBadFormat, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	observations := make([]Observation, 0, len(rows)-1)
	for lineNo, row := range rows[1:] {
		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				fields[col] = strings.TrimSpace(row[i])
			}
		}

		obs, err := observationFromFields(fields)
		if err != nil {
			p.Logger.Warn("skipping row", "file", filepath.Base(path), "row", lineNo+2, "error", err)
			continue
		}

		observations = append(observations, *obs)
	}

	return observations, nil
}

func (p *Parser) parseLines(path string) ([]Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var observations []Observation

	scanner := bufio.NewScanner(file)
	for lineNo := 0; scanner.Scan(); {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(strings.Fields(line)[0])
		if key != "source" && key != "target" && key != "target_name" {
			p.Logger.Warn("skipping line", "file", filepath.Base(path), "line", lineNo,
				"error", "does not start an observation")
			continue
		}

		obs, err := parseObservationLine(line)
		if err != nil {
			if errors.Is(err, ErrMissingTargetName) {
				return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), lineNo, err)
			}
			p.Logger.Warn("skipping line", "file", filepath.Base(path), "line", lineNo, "error", err)
			continue
		}

		observations = append(observations, *obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return observations, nil
}

// parseObservationLine reads a single 'target "NAME" key value ...' line.
func parseObservationLine(line string) (*Observation, error) {
	name, rest, err := quotedName(line)
	if err != nil {
		return nil, err
	}

	obs := Observation{TargetName: name}

	tokens := strings.Fields(rest)
	for i := 0; i+1 < len(tokens); i += 2 {
		key, value := strings.ToLower(tokens[i]), tokens[i+1]

		switch key {
		case "ra":
			obs.RA = value
		case "dec":
			obs.Dec = value
		case "nexp":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("nexp %q: %w", value, ErrBadFormat)
			}
			obs.NExp = &n
		case "exposure_time", "exptime":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("exposure_time %q: %w", value, ErrBadFormat)
			}
			obs.ExposureTime = &n
		case "filters", "filter":
			obs.Filters = &value
		case "readout":
			obs.Readout = &value
		case "cadence":
			obs.Cadence = &value
		case "utstart":
			obs.UTCStartTime = &value
		case "priority":
			obs.Priority = &value
		case "group":
			obs.Group = &value
		}
	}

	if obs.RA == "" {
		return nil, fmt.Errorf("ra: %w", ErrMissingField)
	}
	if obs.Dec == "" {
		return nil, fmt.Errorf("dec: %w", ErrMissingField)
	}

	return &obs, nil
}

func quotedName(line string) (name, rest string, err error) {
	open := strings.Index(line, `"`)
	if open == -1 {
		return "", "", ErrMissingTargetName
	}

	close := strings.Index(line[open+1:], `"`)
	if close == -1 {
		return "", "", ErrMissingTargetName
	}

	return line[open+1 : open+1+close], line[open+close+2:], nil
}

func observationFromFields(fields map[string]string) (*Observation, error) {
	if fields["ra"] == "" {
		return nil, fmt.Errorf("ra: %w", ErrMissingField)
	}
	if fields["dec"] == "" {
		return nil, fmt.Errorf("dec: %w", ErrMissingField)
	}

	obs := Observation{
		TargetName: fields["target_name"],
		RA:         fields["ra"],
		Dec:        fields["dec"],
	}
	if obs.TargetName == "" {
		obs.TargetName = fields["target"]
	}

	optString := func(key string, dst **string) {
		if value := fields[key]; value != "" {
			v := value
			*dst = &v
		}
	}

	optString("observation_type", &obs.ObservationType)
	optString("filters", &obs.Filters)
	optString("priority", &obs.Priority)
	optString("cadence", &obs.Cadence)
	optString("readout", &obs.Readout)
	optString("utc_start_time", &obs.UTCStartTime)
	optString("utc_start_date", &obs.UTCStartDate)
	optString("utc_end_time", &obs.UTCEndTime)
	optString("utc_end_date", &obs.UTCEndDate)
	optString("lst_start_time", &obs.LSTStartTime)
	optString("lst_start_date", &obs.LSTStartDate)
	optString("lst_end_time", &obs.LSTEndTime)
	optString("lst_end_date", &obs.LSTEndDate)
	optString("group", &obs.Group)

	if value := fields["nexp"]; value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("nexp %q: %w", value, ErrBadFormat)
		}
		obs.NExp = &n
	}
	if value := fields["exposure_time"]; value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("exposure_time %q: %w", value, ErrBadFormat)
		}
		obs.ExposureTime = &n
	}

	return &obs, nil
}
