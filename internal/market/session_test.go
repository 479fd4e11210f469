package market

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/stretchr/testify/require"
)

func nyseCfg() *config.MarketCfg {
	return &config.MarketCfg{
		Timezone:             "America/New_York",
		OpenMinute:           9*60 + 30,
		CloseMinute:          16 * 60,
		PreMinute:            4 * 60,
		PostMinute:           20 * 60,
		OpenMultiplier:       1,
		AfterHoursMultiplier: 2,
		ClosedMultiplier:     4,
		WeekendMultiplier:    8,
	}
}

func at(t *testing.T, value string) *clock.Mock {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	mock := clock.NewMock()
	mock.Set(ts)
	return mock
}

func TestSessionStates(t *testing.T) {
	cases := []struct {
		when string
		want State
	}{
		{"2026-09-01 10:00", Open},       // Tuesday mid-session
		{"2026-09-01 09:29", AfterHours}, // pre-market
		{"2026-09-01 17:30", AfterHours}, // post-market
		{"2026-09-01 22:00", Closed},
		{"2026-09-01 03:00", Closed},
		{"2026-09-05 12:00", Weekend}, // Saturday
		{"2026-09-06 12:00", Weekend}, // Sunday
	}

	for _, tc := range cases {
		s := New(nyseCfg(), at(t, tc.when))
		require.Equal(t, tc.want, s.State(), "at %s", tc.when)
	}
}

func TestScaleAppliesSessionMultiplier(t *testing.T) {
	s := New(nyseCfg(), at(t, "2026-09-05 12:00")) // weekend
	require.Equal(t, 8*time.Hour, s.Scale(time.Hour))

	s = New(nyseCfg(), at(t, "2026-09-01 10:00")) // open
	require.Equal(t, time.Hour, s.Scale(time.Hour))
}

func TestDisabledMarketConfig(t *testing.T) {
	s := New(nil, clock.NewMock())
	require.Equal(t, Closed, s.State())
	require.Equal(t, time.Hour, s.Scale(time.Hour))
}
