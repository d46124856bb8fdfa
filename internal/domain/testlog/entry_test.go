package testlog_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sophialabs/testlabadvisor/internal/domain/testlog"
)

func validEntry() testlog.Entry {
	return testlog.Entry{
		OpStep:     "0472",
		CardID:     "CARD42",
		Technician: "jd",
		Result:     "pass",
	}
}

func TestNormalize_UppercasesTechnician(t *testing.T) {
	e, err := testlog.Normalize(validEntry())
	require.NoError(t, err)
	assert.Equal(t, "JD", e.Technician)
	assert.Equal(t, "CARD42", e.CardID)
	assert.Equal(t, testlog.ResultPass, e.Result)
}

func TestNormalize_TrimsButKeepsCardIDVerbatim(t *testing.T) {
	in := validEntry()
	in.CardID = "  card-42a  "
	in.Technician = " ab "

	e, err := testlog.Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, "card-42a", e.CardID)
	assert.Equal(t, "AB", e.Technician)
}

func TestNormalize_MissingFields(t *testing.T) {
	in := validEntry()
	in.CardID = "   "
	in.Technician = ""

	_, err := testlog.Normalize(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, testlog.ErrValidation))

	var verr *testlog.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"CardID", "Technician"}, verr.Missing)
	assert.Contains(t, err.Error(), "CardID")
	assert.Contains(t, err.Error(), "Technician")
}

func TestNormalize_InvalidResult(t *testing.T) {
	in := validEntry()
	in.Result = "maybe"

	_, err := testlog.Normalize(in)
	var verr *testlog.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, verr.Missing)
	assert.Contains(t, verr.Invalid, "Result")
	assert.Contains(t, err.Error(), "invalid Result")
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"PASS", testlog.ResultPass, true},
		{"p", testlog.ResultPass, true},
		{" Fail ", testlog.ResultFail, true},
		{"F", testlog.ResultFail, true},
		{"", "", false},
		{"skipped", "", false},
	}
	for _, tt := range tests {
		got, ok := testlog.ParseResult(tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
		assert.Equal(t, tt.ok, ok, "raw %q", tt.raw)
	}
}

func TestRowRoundTrip(t *testing.T) {
	e, err := testlog.Normalize(validEntry())
	require.NoError(t, err)
	e.Timestamp = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	e.Notes = "reseated, okay"

	row := e.Row()
	require.Len(t, row, len(testlog.Columns))
	assert.Equal(t, "2026-03-04 05:06:07", row[0])

	back, err := testlog.ParseRow(row, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, e, back)
}

func TestParseRow_ShortAndBadRows(t *testing.T) {
	e, err := testlog.ParseRow([]string{"", "1000"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "1000", e.OpStep)
	assert.True(t, e.Timestamp.IsZero())

	_, err = testlog.ParseRow([]string{"yesterday"}, time.UTC)
	assert.Error(t, err)
}
