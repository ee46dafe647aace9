package lottery

import (
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	taipei := time.FixedZone("CST", 8*60*60)

	tests := []struct {
		name     string
		now      time.Time
		wantDay  time.Weekday
		wantDate string
	}{
		{
			name:     "window start uses today",
			now:      time.Date(2024, 5, 6, 22, 0, 0, 0, taipei), // Monday
			wantDay:  time.Monday,
			wantDate: "2024-05-06",
		},
		{
			name:     "window end uses today",
			now:      time.Date(2024, 5, 6, 23, 59, 59, 0, taipei),
			wantDay:  time.Monday,
			wantDate: "2024-05-06",
		},
		{
			name:     "just before window uses yesterday",
			now:      time.Date(2024, 5, 6, 21, 59, 0, 0, taipei),
			wantDay:  time.Sunday,
			wantDate: "2024-05-05",
		},
		{
			name:     "after midnight uses yesterday",
			now:      time.Date(2024, 5, 7, 0, 30, 0, 0, taipei), // Tuesday
			wantDay:  time.Monday,
			wantDate: "2024-05-06",
		},
		{
			name:     "rolls back across month boundary",
			now:      time.Date(2024, 6, 1, 8, 0, 0, 0, taipei),
			wantDay:  time.Friday,
			wantDate: "2024-05-31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.now)
			if got.Day != tt.wantDay {
				t.Errorf("Resolve().Day = %v, want %v", got.Day, tt.wantDay)
			}
			if d := got.Date.Format("2006-01-02"); d != tt.wantDate {
				t.Errorf("Resolve().Date = %s, want %s", d, tt.wantDate)
			}
			if got.Date.Hour() != 0 || got.Date.Minute() != 0 {
				t.Errorf("Resolve().Date = %v, want midnight", got.Date)
			}
		})
	}
}

func TestResolve_EveryHour(t *testing.T) {
	base := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC) // Wednesday
	for h := 0; h < 24; h++ {
		got := Resolve(base.Add(time.Duration(h) * time.Hour))
		want := time.Tuesday
		if h == 22 || h == 23 {
			want = time.Wednesday
		}
		if got.Day != want {
			t.Errorf("hour %d: Resolve().Day = %v, want %v", h, got.Day, want)
		}
	}
}

func TestEraDate(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), "113年5月6日"},
		{time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC), "107年12月31日"},
		{time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), "100年1月1日"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := EraDate(tt.date); got != tt.want {
				t.Errorf("EraDate(%v) = %q, want %q", tt.date, got, tt.want)
			}
		})
	}
}
