package impactqueue

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	calls []string
	err   error
}

func (f *fakeReconciler) ReconcileUser(_ context.Context, userID string) error {
	f.calls = append(f.calls, userID)
	return f.err
}

func newJob(userID string) *river.Job[ReconcileStatsJob] {
	return &river.Job[ReconcileStatsJob]{
		JobRow: &rivertype.JobRow{ID: 42, Attempt: 1, Kind: ReconcileStatsJob{}.Kind()},
		Args:   ReconcileStatsJob{UserID: userID},
	}
}

func TestReconcileStatsJob_Kind(t *testing.T) {
	assert.Equal(t, "impact_reconcile_stats", ReconcileStatsJob{}.Kind())
}

func TestReconcileWorker_Work(t *testing.T) {
	tests := []struct {
		name       string
		reconciler *fakeReconciler
		userID     string
		wantErr    error
		wantCancel bool
		wantCalls  []string
	}{
		{
			name:       "reconciles the job's user",
			reconciler: &fakeReconciler{},
			userID:     "user-1",
			wantCalls:  []string{"user-1"},
		},
		{
			name:    "unbound worker asks for a retry",
			userID:  "user-1",
			wantErr: ErrNoReconciler,
		},
		{
			name:       "reconcile error is returned for retry",
			reconciler: &fakeReconciler{err: errors.New("db down")},
			userID:     "user-2",
			wantCalls:  []string{"user-2"},
		},
		{
			name:       "missing user id cancels the job",
			reconciler: &fakeReconciler{},
			wantCancel: true,
			wantCalls:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewReconcileWorker(slog.Default())
			if tt.reconciler != nil {
				w.SetReconciler(tt.reconciler)
			}

			err := w.Work(context.Background(), newJob(tt.userID))

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantCancel:
				assert.Error(t, err)
			case tt.reconciler != nil && tt.reconciler.err != nil:
				assert.ErrorIs(t, err, tt.reconciler.err)
			default:
				require.NoError(t, err)
			}
			if tt.reconciler != nil {
				assert.Equal(t, tt.wantCalls, tt.reconciler.calls)
			}
		})
	}
}
