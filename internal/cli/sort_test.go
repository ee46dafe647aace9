package cli

import (
	"testing"

	"github.com/pfrederiksen/catchlottery/internal/lottery"
)

func TestSortRecords(t *testing.T) {
	records := func() []lottery.DrawRecord {
		return []lottery.DrawRecord{
			{Name: "大福彩", SortRank: 5, PeriodID: "113000020"},
			{Name: "今彩539", SortRank: 6, PeriodID: "113000110"},
			{Name: "威力彩", SortRank: 1, PeriodID: "113000036"},
			{Name: "38樂合彩", SortRank: 2, PeriodID: "113000036"},
			{Name: "3星彩", SortRank: 8, PeriodID: "99000999"},
		}
	}

	tests := []struct {
		order SortOrder
		want  []int
	}{
		{SortByRank, []int{1, 2, 5, 6, 8}},
		{SortByName, []int{2, 8, 6, 5, 1}},
		{SortByPeriod, []int{6, 1, 2, 5, 8}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			recs := records()
			sortRecords(recs, tt.order)
			for i, rec := range recs {
				if rec.SortRank != tt.want[i] {
					t.Fatalf("position %d: rank %d, want %d (order %v)", i, rec.SortRank, tt.want[i], recs)
				}
			}
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	for _, s := range []string{"rank", "NAME", " period "} {
		if _, err := ParseSortOrder(s); err != nil {
			t.Errorf("ParseSortOrder(%q) error: %v", s, err)
		}
	}
	if _, err := ParseSortOrder("date"); err == nil {
		t.Error("ParseSortOrder(date) expected an error")
	}
}

func TestComparePeriod(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"113000036", "113000036", 0},
		{"113000107", "113000036", 1},
		{"99000999", "113000001", -1},
		{"0042", "42", 0},
		{"A12", "B01", -1},
	}
	for _, tt := range tests {
		if got := comparePeriod(tt.a, tt.b); got != tt.want {
			t.Errorf("comparePeriod(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
