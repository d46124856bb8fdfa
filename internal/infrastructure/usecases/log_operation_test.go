package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sophialabs/testlabadvisor/internal/domain/operation"
	"github.com/sophialabs/testlabadvisor/internal/domain/testlog"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/services"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/usecases"
	"github.com/sophialabs/testlabadvisor/internal/testutil"
)

func newLogUC(sink *testutil.MemorySink, allow bool, policy usecases.SubmitPolicy) *usecases.LogOperationUseCase {
	return usecases.NewLogOperationUseCase(
		services.NewDatasetHandle(nil, nil),
		sink,
		&testutil.StubRateLimiter{AllowAll: allow},
		policy,
		&testutil.FixedClock{T: fixedNow},
		&testutil.NoopLogger{},
		testutil.NoopMetrics{},
	)
}

func TestLogOperation_Persists(t *testing.T) {
	sink := &testutil.MemorySink{}
	uc := newLogUC(sink, true, usecases.SubmitPolicy{})

	got, err := uc.Execute(context.Background(), testlog.Entry{
		OpStep: "0472", CardID: "CARD42", Technician: "jd", Result: "pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "JD", got.Technician)
	assert.Equal(t, testlog.ResultPass, got.Result)
	assert.Equal(t, fixedNow, got.Timestamp)

	require.Len(t, sink.Entries, 1)
	assert.Equal(t, got, sink.Entries[0])
}

func TestLogOperation_CatalogDefaults(t *testing.T) {
	tests := []struct {
		name     string
		in       testlog.Entry
		wantDesc string
		wantTemp string
	}{
		{
			name:     "cold step",
			in:       testlog.Entry{OpStep: "0476", CardID: "C1", Technician: "ab", Result: "F"},
			wantDesc: "IO diagnostics @ Cold",
			wantTemp: operation.TempCold,
		},
		{
			name:     "explicit values kept",
			in:       testlog.Entry{OpStep: "0474", OpDescription: "rerun", Temperature: "Ambient", CardID: "C1", Technician: "ab", Result: "P"},
			wantDesc: "rerun",
			wantTemp: operation.TempAmbient,
		},
		{
			name:     "unknown step",
			in:       testlog.Entry{OpStep: "custom-7", CardID: "C1", Technician: "ab", Result: "FAIL"},
			wantDesc: "",
			wantTemp: operation.TempAmbient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newLogUC(&testutil.MemorySink{}, true, usecases.SubmitPolicy{})
			got, err := uc.Execute(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDesc, got.OpDescription)
			assert.Equal(t, tt.wantTemp, got.Temperature)
		})
	}
}

func TestLogOperation_ValidationWritesNothing(t *testing.T) {
	sink := &testutil.MemorySink{}
	uc := newLogUC(sink, true, usecases.SubmitPolicy{})

	_, err := uc.Execute(context.Background(), testlog.Entry{OpStep: "0472", CardID: "  ", Technician: "jd", Result: "PASS"})
	require.Error(t, err)
	assert.ErrorIs(t, err, testlog.ErrValidation)

	var verr *testlog.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"CardID"}, verr.Missing)
	assert.Empty(t, sink.Entries)
}

func TestLogOperation_RateLimited(t *testing.T) {
	sink := &testutil.MemorySink{}
	uc := newLogUC(sink, false, usecases.SubmitPolicy{Rate: 1, Burst: 1})

	_, err := uc.Execute(context.Background(), testlog.Entry{OpStep: "0472", CardID: "C1", Technician: "jd", Result: "PASS"})
	assert.ErrorIs(t, err, usecases.ErrRateLimited)
	assert.Empty(t, sink.Entries)
}

func TestLogOperation_RateLimitDisabled(t *testing.T) {
	sink := &testutil.MemorySink{}
	uc := newLogUC(sink, false, usecases.SubmitPolicy{})

	_, err := uc.Execute(context.Background(), testlog.Entry{OpStep: "0472", CardID: "C1", Technician: "jd", Result: "PASS"})
	require.NoError(t, err)
	assert.Len(t, sink.Entries, 1)
}

func TestLogOperation_SinkFailure(t *testing.T) {
	sink := &testutil.MemorySink{Err: fmt.Errorf("%w: disk full", testlog.ErrSink)}
	uc := newLogUC(sink, true, usecases.SubmitPolicy{})

	_, err := uc.Execute(context.Background(), testlog.Entry{OpStep: "0472", CardID: "C1", Technician: "jd", Result: "PASS"})
	assert.ErrorIs(t, err, testlog.ErrSink)
}

func TestLogOperation_Recent(t *testing.T) {
	sink := &testutil.MemorySink{}
	uc := newLogUC(sink, true, usecases.SubmitPolicy{})

	for _, card := range []string{"C1", "C2", "C3"} {
		_, err := uc.Execute(context.Background(), testlog.Entry{OpStep: "1000", CardID: card, Technician: "jd", Result: "PASS"})
		require.NoError(t, err)
	}

	recent, err := uc.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "C2", recent[0].CardID)
	assert.Equal(t, "C3", recent[1].CardID)
}
