package schedule

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func writeScheduleFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseLineOriented(t *testing.T) {
	content := `# nightly targets
target "M31" ra 00:42:44 dec +41:16:09 nexp 3 exposure_time 60 filters R

source "SN2024abc" ra 12:30:00 dec -05:45:00 cadence 00:10:00 utstart 02:00:00
`
	parser := newTestParser(t)

	observations, err := parser.ParseFile(writeScheduleFile(t, "night.sch", content))
	require.NoError(t, err)
	require.Len(t, observations, 2)

	m31 := observations[0]
	assert.Equal(t, "M31", m31.TargetName)
	assert.Equal(t, "00:42:44", m31.RA)
	assert.Equal(t, "+41:16:09", m31.Dec)
	require.NotNil(t, m31.NExp)
	assert.Equal(t, 3, *m31.NExp)
	require.NotNil(t, m31.ExposureTime)
	assert.Equal(t, 60, *m31.ExposureTime)
	require.NotNil(t, m31.Filters)
	assert.Equal(t, "R", *m31.Filters)
	assert.Nil(t, m31.Group)

	sn := observations[1]
	assert.Equal(t, "SN2024abc", sn.TargetName)
	require.NotNil(t, sn.Cadence)
	assert.Equal(t, "00:10:00", *sn.Cadence)
	require.NotNil(t, sn.UTCStartTime)
	assert.Equal(t, "02:00:00", *sn.UTCStartTime)
	assert.Nil(t, sn.NExp)
}

func TestParseLineOrientedSkipsBadLines(t *testing.T) {
	content := `target "M31" ra 00:42:44 dec +41:16:09 nexp 3 exposure_time 60
target "NoDec" ra 10:00:00 nexp 2
target "BadNexp" ra 10:00:00 dec 20:00:00 nexp three
`
	parser := newTestParser(t)

	observations, err := parser.ParseFile(writeScheduleFile(t, "partial.txt", content))
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "M31", observations[0].TargetName)
}

func TestParseLineOrientedGroupDirective(t *testing.T) {
	content := `target "A" ra 01:00:00 dec 10:00:00 group 1
target "B" ra 02:00:00 dec 20:00:00 group 1
`
	parser := newTestParser(t)

	observations, err := parser.ParseFile(writeScheduleFile(t, "grouped.sch", content))
	require.NoError(t, err)
	require.Len(t, observations, 2)
	require.NotNil(t, observations[0].Group)
	require.NotNil(t, observations[1].Group)
	assert.Equal(t, "1", *observations[0].Group)
	assert.Equal(t, *observations[0].Group, *observations[1].Group)
}

func TestParseLineOrientedMissingTargetName(t *testing.T) {
	content := "target M31 ra 00:42:44 dec +41:16:09\n"
	parser := newTestParser(t)

	_, err := parser.ParseFile(writeScheduleFile(t, "unquoted.sch", content))
	assert.ErrorIs(t, err, ErrMissingTargetName)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestParseCSV(t *testing.T) {
	content := `target_name,ra,dec,nexp,exposure_time,filters,priority
M31,00:42:44,+41:16:09,3,60,R,high
,187.70593,12.39112,1,30,,
`
	parser := newTestParser(t)

	observations, err := parser.ParseFile(writeScheduleFile(t, "targets.csv", content))
	require.NoError(t, err)
	require.Len(t, observations, 2)

	assert.Equal(t, "M31", observations[0].TargetName)
	require.NotNil(t, observations[0].Priority)
	assert.Equal(t, "high", *observations[0].Priority)

	// Second row has no target name or filters; those stay unset for the
	// store to default.
	assert.Empty(t, observations[1].TargetName)
	assert.Nil(t, observations[1].Filters)
	require.NotNil(t, observations[1].ExposureTime)
	assert.Equal(t, 30, *observations[1].ExposureTime)
}

func TestParseECSVSkipsHeader(t *testing.T) {
	content := `# %ECSV 1.0
# ---
# datatype:
# - {name: target_name, datatype: string}
target_name,ra,dec
M31,00:42:44,+41:16:09
`
	parser := newTestParser(t)

	observations, err := parser.ParseFile(writeScheduleFile(t, "targets.ecsv", content))
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "M31", observations[0].TargetName)
}

func TestParseCSVMalformed(t *testing.T) {
	content := "target_name,ra,dec\n\"unterminated,00:42:44,+41:16:09\n"
	parser := newTestParser(t)

	_, err := parser.ParseFile(writeScheduleFile(t, "broken.csv", content))
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestParseUnsupportedExtension(t *testing.T) {
	parser := newTestParser(t)

	_, err := parser.ParseFile(writeScheduleFile(t, "targets.json", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseEmptyFile(t *testing.T) {
	parser := newTestParser(t)

	_, err := parser.ParseFile(writeScheduleFile(t, "empty.sch", "# nothing here\n\n"))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = parser.ParseFile(writeScheduleFile(t, "headeronly.csv", "target_name,ra,dec\n"))
	assert.ErrorIs(t, err, ErrEmptyFile)
}
