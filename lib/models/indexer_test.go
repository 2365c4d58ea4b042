package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthNext(t *testing.T) {
	tests := []struct {
		name       string
		from       Health
		outcome    Outcome
		want       Health
		notifyDown bool
	}{
		{"first failure alerts", HealthUp, OutcomeFailure, HealthDown, true},
		{"repeated failure is silent", HealthDown, OutcomeFailure, HealthDown, false},
		{"recovery is silent", HealthDown, OutcomeSuccess, HealthUp, false},
		{"success stays up", HealthUp, OutcomeSuccess, HealthUp, false},
		{"gone from up", HealthUp, OutcomeGone, HealthDisabled, false},
		{"gone from down", HealthDown, OutcomeGone, HealthDisabled, false},
		{"gone while disabled", HealthDisabled, OutcomeGone, HealthDisabled, false},
		{"failure while disabled", HealthDisabled, OutcomeFailure, HealthDisabled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, notify := tt.from.Next(tt.outcome)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.notifyDown, notify)
		})
	}
}

func TestHealthNext_TwoFailuresAlertOnce(t *testing.T) {
	h := HealthUp
	alerts := 0
	for i := 0; i < 2; i++ {
		var notify bool
		h, notify = h.Next(OutcomeFailure)
		if notify {
			alerts++
		}
	}
	assert.Equal(t, HealthDown, h)
	assert.Equal(t, 1, alerts)
}

func TestHealthString(t *testing.T) {
	assert.Equal(t, "up", HealthUp.String())
	assert.Equal(t, "down", HealthDown.String())
	assert.Equal(t, "disabled", HealthDisabled.String())
	assert.Equal(t, "health(7)", Health(7).String())
}

func TestPubDate(t *testing.T) {
	d, err := ParsePubDate("Mon, 01 Jan 2024 02:00:00 +0200")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Mon, 01 Jan 2024 00:00:00 +0000", d.String())

	_, err = ParsePubDate("yesterday")
	assert.Error(t, err)

	assert.Equal(t, "", PubDate{}.String())
}

func TestPubDateScan(t *testing.T) {
	var d PubDate
	require.NoError(t, d.Scan([]byte("Tue, 02 Jan 2024 00:00:00 +0000")))
	assert.Equal(t, 2, d.Day())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := NewPubDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)).Value()
	require.NoError(t, err)
	assert.Equal(t, "Tue, 02 Jan 2024 00:00:00 +0000", v)
}

func TestGUIDWindowBound(t *testing.T) {
	w := GUIDWindow{"a", "b", "c", "d"}

	assert.Equal(t, GUIDWindow{"c", "d"}, w.Bound(2))
	assert.Equal(t, w, w.Bound(4))
	assert.Equal(t, w, w.Bound(10))
	assert.Empty(t, w.Bound(0))
	assert.Empty(t, w.Bound(-1))

	assert.True(t, w.Contains("b"))
	assert.False(t, w.Contains("z"))
}

func TestGUIDWindowValueScan(t *testing.T) {
	v, err := GUIDWindow(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = GUIDWindow{"x", "y"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["x","y"]`, v)

	var w GUIDWindow
	require.NoError(t, w.Scan(`["x","y"]`))
	assert.Equal(t, GUIDWindow{"x", "y"}, w)

	require.NoError(t, w.Scan(nil))
	assert.Equal(t, GUIDWindow{}, w)

	require.NoError(t, w.Scan([]byte("")))
	assert.Equal(t, GUIDWindow{}, w)

	assert.Error(t, w.Scan("not json"))
}
