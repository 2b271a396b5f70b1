// Package policy_test tests the pure retention decision rules.
package policy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promopipe/promokeeper/internal/batch"
	"github.com/promopipe/promokeeper/internal/policy"
)

const day = 24 * time.Hour

func TestDecide(t *testing.T) {
	th := policy.DefaultThresholds()

	tests := []struct {
		name  string
		state batch.State
		age   time.Duration
		want  policy.Action
	}{
		{"LiveYoung", batch.StateLive, 3 * day, policy.NoAction},
		{"LiveAtThreshold", batch.StateLive, 7 * day, policy.NoAction},
		{"LivePastThreshold", batch.StateLive, 7*day + time.Second, policy.Archive},
		{"LiveWellPast", batch.StateLive, 8 * day, policy.Archive},
		{"ArchivedYoung", batch.StateArchived, 10 * day, policy.NoAction},
		{"ArchivedAtThreshold", batch.StateArchived, 30 * day, policy.NoAction},
		{"ArchivedPastThreshold", batch.StateArchived, 30*day + time.Second, policy.Compress},
		{"CompressedYoung", batch.StateCompressed, 60 * day, policy.NoAction},
		{"CompressedAtThreshold", batch.StateCompressed, 90 * day, policy.NoAction},
		{"CompressedPastThreshold", batch.StateCompressed, 91 * day, policy.Purge},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, policy.Decide(tc.state, tc.age, th))
		})
	}
}

// A live batch far past every threshold still only archives; states are
// never skipped.
func TestDecideNeverSkipsStates(t *testing.T) {
	th := policy.DefaultThresholds()
	assert.Equal(t, policy.Archive, policy.Decide(batch.StateLive, 365*day, th))
	assert.Equal(t, policy.Compress, policy.Decide(batch.StateArchived, 365*day, th))
}

func TestDecideLog(t *testing.T) {
	th := policy.DefaultThresholds()
	assert.Equal(t, policy.NoAction, policy.DecideLog(10*day, th))
	assert.Equal(t, policy.NoAction, policy.DecideLog(30*day, th))
	assert.Equal(t, policy.Purge, policy.DecideLog(30*day+time.Second, th))
}

func TestThresholdsValidate(t *testing.T) {
	t.Run("DefaultsValid", func(t *testing.T) {
		require.NoError(t, policy.DefaultThresholds().Validate())
	})
	t.Run("Negative", func(t *testing.T) {
		th := policy.DefaultThresholds()
		th.PurgeLogAfterDays = -1
		assert.Error(t, th.Validate())
	})
	t.Run("ArchiveNotBeforeCompress", func(t *testing.T) {
		th := policy.Thresholds{ArchiveAfterDays: 30, CompressAfterDays: 30, PurgeCompressedAfterDays: 90, PurgeLogAfterDays: 30}
		assert.Error(t, th.Validate())
	})
	t.Run("CompressNotBeforePurge", func(t *testing.T) {
		th := policy.Thresholds{ArchiveAfterDays: 7, CompressAfterDays: 90, PurgeCompressedAfterDays: 90, PurgeLogAfterDays: 30}
		assert.Error(t, th.Validate())
	})
}

func TestThresholdDurations(t *testing.T) {
	th := policy.Thresholds{ArchiveAfterDays: 1, CompressAfterDays: 2, PurgeCompressedAfterDays: 3, PurgeLogAfterDays: 4}
	assert.Equal(t, day, th.ArchiveAfter())
	assert.Equal(t, 2*day, th.CompressAfter())
	assert.Equal(t, 3*day, th.PurgeCompressedAfter())
	assert.Equal(t, 4*day, th.PurgeLogAfter())
}
