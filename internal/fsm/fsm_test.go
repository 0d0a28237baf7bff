package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "start recording", from: StateIdle, event: EventStart, want: StateRecording},
		{name: "stop flushes", from: StateRecording, event: EventStop, want: StateProcessing},
		{name: "cancel discards", from: StateRecording, event: EventCancel, want: StateIdle},
		{name: "drained", from: StateProcessing, event: EventDrained, want: StateIdle},
		{name: "fail from processing", from: StateProcessing, event: EventFail, want: StateError},
		{name: "fail from idle", from: StateIdle, event: EventFail, want: StateError},
		{name: "reset", from: StateError, event: EventReset, want: StateIdle},
		{name: "start while processing", from: StateProcessing, event: EventStart, want: StateProcessing, wantErr: true},
		{name: "cancel while processing", from: StateProcessing, event: EventCancel, want: StateProcessing, wantErr: true},
		{name: "stop while idle", from: StateIdle, event: EventStop, want: StateIdle, wantErr: true},
		{name: "unknown state", from: State("paused"), event: EventStart, want: State("paused"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.event)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.want, got)
		})
	}
}
