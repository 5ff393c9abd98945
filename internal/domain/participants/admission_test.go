package participants

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdmit(t *testing.T) {
	tests := []struct {
		name    string
		quota   int
		current int
		wantErr bool
	}{
		{"empty event", 2, 0, false},
		{"last seat", 2, 1, false},
		{"full", 2, 2, true},
		{"over full", 2, 3, true},
		{"zero quota", 0, 0, true},
		{"negative quota", -1, 0, true},
		{"negative count", 5, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Admit(tt.quota, tt.current)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrCapacityExceeded)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAdmitSequenceFillsExactlyQuota(t *testing.T) {
	for quota := 0; quota <= 5; quota++ {
		admitted := 0
		for attempt := 0; attempt < quota+3; attempt++ {
			if Admit(quota, admitted) == nil {
				admitted++
			}
		}
		require.Equal(t, quota, admitted)
	}
}
