// Package astro converts observer-supplied coordinate strings into the
// canonical numeric form the rest of the system stores and compares.
package astro

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformed  = errors.New("malformed coordinate")
	ErrOutOfRange = errors.New("coordinate out of range")
)

// Normalize parses a right ascension and declination pair into decimal
// hours and decimal degrees. Colon-separated values are treated as
// sexagesimal (HH:MM:SS / +-DD:MM:SS); bare numbers are decimal degrees.
// RA must land in [0, 24), Dec in [-90, 90].
func Normalize(ra, dec string) (raHours, decDegrees float64, err error) {
	raHours, err = parseRA(ra)
	if err != nil {
		return 0, 0, err
	}

	decDegrees, err = parseDec(dec)
	if err != nil {
		return 0, 0, err
	}

	if raHours < 0 || raHours >= 24 {
		return 0, 0, fmt.Errorf("ra %q: %.4f hours not in [0, 24): %w", ra, raHours, ErrOutOfRange)
	}
	if decDegrees < -90 || decDegrees > 90 {
		return 0, 0, fmt.Errorf("dec %q: %.4f degrees not in [-90, 90]: %w", dec, decDegrees, ErrOutOfRange)
	}

	return raHours, decDegrees, nil
}

func parseRA(ra string) (float64, error) {
	ra = strings.TrimSpace(ra)

	if strings.Contains(ra, ":") {
		return parseSexagesimal("ra", ra)
	}

	degrees, err := strconv.ParseFloat(ra, 64)
	if err != nil {
		return 0, fmt.Errorf("ra %q: %w", ra, ErrMalformed)
	}

	// Bare decimal RA is given in degrees; 15 degrees per hour.
	return degrees / 15, nil
}

func parseDec(dec string) (float64, error) {
	dec = strings.TrimSpace(dec)

	if strings.Contains(dec, ":") {
		return parseSexagesimal("dec", dec)
	}

	degrees, err := strconv.ParseFloat(dec, 64)
	if err != nil {
		return 0, fmt.Errorf("dec %q: %w", dec, ErrMalformed)
	}

	return degrees, nil
}

// parseSexagesimal converts "D:M:S" (seconds optional) to a decimal value.
// The sign of the whole value comes from the first component, so
// "-00:30:00" is -0.5.
func parseSexagesimal(field, value string) (float64, error) {
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%s %q: %w", field, value, ErrMalformed)
	}

	negative := strings.HasPrefix(strings.TrimSpace(parts[0]), "-")

	head, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(parts[0]), "+"), 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, value, ErrMalformed)
	}

	minutes, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("%s %q: %w", field, value, ErrMalformed)
	}

	var seconds float64
	if len(parts) == 3 {
		seconds, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || seconds < 0 {
			return 0, fmt.Errorf("%s %q: %w", field, value, ErrMalformed)
		}
	}

	magnitude := head
	if negative {
		magnitude = -magnitude
	}
	magnitude += minutes/60 + seconds/3600

	if negative {
		return -magnitude, nil
	}
	return magnitude, nil
}

// DefaultTargetName labels an unnamed target by its normalized epoch
// J2000 position.
func DefaultTargetName(raHours, decDegrees float64) string {
	return fmt.Sprintf("J2000-%.4f%+.4f", raHours, decDegrees)
}
