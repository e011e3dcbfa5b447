package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		raw  string
		want Action
	}{
		{"LONG", ActionLong},
		{"long", ActionLong},
		{"OPEN_LONG", ActionLong},
		{"OPEN_SHORT", ActionShort},
		{" short ", ActionShort},
		{"HOLD", ActionHold},
		{"WAIT", ActionWait},
	}
	for _, tc := range cases {
		got, err := ParseAction(tc.raw)
		assert.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestParseAction_RejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "BUY", "YOLO", "LONGG"} {
		_, err := ParseAction(raw)
		assert.Error(t, err, raw)
	}
}

func TestAction_Directional(t *testing.T) {
	assert.True(t, ActionLong.Directional())
	assert.True(t, ActionShort.Directional())
	assert.False(t, ActionHold.Directional())
	assert.False(t, ActionWait.Directional())
}

func TestSubmission_Validate(t *testing.T) {
	sub := Submission{Action: ActionLong, Stake: 100, Confidence: 0.8}
	assert.NoError(t, sub.Validate())

	sub.Stake = -1
	assert.Error(t, sub.Validate())

	sub = Submission{Action: ActionLong, Stake: 100, Confidence: 1.5}
	assert.Error(t, sub.Validate())

	sub = Submission{Action: "FOMO", Stake: 100, Confidence: 0.5}
	assert.Error(t, sub.Validate())
}

func TestClampTrust(t *testing.T) {
	assert.Equal(t, 0.0, ClampTrust(-0.2))
	assert.Equal(t, 1.0, ClampTrust(1.7))
	assert.Equal(t, 0.42, ClampTrust(0.42))
}
