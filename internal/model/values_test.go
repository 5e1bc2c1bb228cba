package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDecodeTolerantFields(t *testing.T) {
	raw := `{"id":1042,"price":"$1,250.50","trip_miles":"500","deadhead_miles":null,
		"pu_latitude":"40.5","pu_longitude":-75.25,"do_latitude":"","do_longitude":"abc"}`
	var l Load
	require.NoError(t, json.Unmarshal([]byte(raw), &l))

	assert.Equal(t, LoadID("1042"), l.ID)
	assert.InDelta(t, 1250.50, float64(l.Price), 1e-9)
	assert.InDelta(t, 500, float64(l.TripMiles), 1e-9)
	assert.Zero(t, float64(l.DeadheadMiles))
	assert.Equal(t, Coord{Deg: 40.5, Valid: true}, l.PuLatitude)
	assert.Equal(t, Coord{Deg: -75.25, Valid: true}, l.PuLongitude)
	assert.False(t, l.DoLatitude.Valid)
	assert.False(t, l.DoLongitude.Valid)
}

func TestLoadIDString(t *testing.T) {
	var l Load
	require.NoError(t, json.Unmarshal([]byte(`{"id":" L-7 "}`), &l))
	assert.Equal(t, "L-7", l.ID.String())
}

func TestCoordMarshalInvalidAsNull(t *testing.T) {
	b, err := json.Marshal(struct {
		A Coord `json:"a"`
		B Coord `json:"b"`
	}{A: NewCoord(1.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(b))
}

func TestRPM(t *testing.T) {
	cases := []struct {
		name  string
		price float64
		miles float64
		want  float64
	}{
		{"normal", 100, 50, 2},
		{"zero miles", 100, 0, 0},
		{"negative miles", 100, -10, 0},
		{"zero price", 0, 50, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := Load{Price: Number(tc.price), TripMiles: Number(tc.miles)}
			assert.InDelta(t, tc.want, l.RPM(), 1e-9)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-06-03", "2024-06-03T23:59:00Z", "2024-06-03 08:00", "6/3/2024", "06/03/2024"} {
		got, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), s)
	}
	for _, s := range []string{"", "soon", "2024-13-40"} {
		_, ok := ParseDate(s)
		assert.False(t, ok, s)
	}
}

func TestPickupAtUsesTime(t *testing.T) {
	l := Load{PuDate: "2024-06-03", PuTime: "14:30"}
	at, ok := l.PickupAt()
	require.True(t, ok)
	assert.Equal(t, 14, at.Hour())
	assert.Equal(t, 30, at.Minute())
}

func TestClockPart(t *testing.T) {
	assert.Equal(t, "14:30", ClockPart(" 14:30 ", "2024-06-03T09:00"))
	assert.Equal(t, "09:00", ClockPart("", "2024-06-03T09:00"))
	assert.Equal(t, "2:30 PM", ClockPart("", "6/3/2024 2:30 PM"))
	assert.Empty(t, ClockPart("", "2024-06-03"))
}

func TestGoodMoveThresholdsFor(t *testing.T) {
	g := GoodMoveThresholds{Default: 5000, ByContract: map[string]float64{"oo": 6000, "LOO": 4000}}
	assert.Equal(t, 6000.0, g.For("OO"))
	assert.Equal(t, 4000.0, g.For("LOO"))
	assert.Equal(t, 5000.0, g.For("COMPANY"))
	assert.Equal(t, 5000.0, g.For(""))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" Inbound ")
	require.NoError(t, err)
	assert.Equal(t, Inbound, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
