package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/catchlottery/internal/lottery"
)

// SortOrder represents the available sorting options of the show command
type SortOrder string

const (
	SortByRank   SortOrder = "rank"
	SortByName   SortOrder = "name"
	SortByPeriod SortOrder = "period"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	o := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case SortByRank, SortByName, SortByPeriod:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'rank', 'name' or 'period')", s)
	}
}

// sortRecords sorts records in place; ties fall back to the sort rank
func sortRecords(records []lottery.DrawRecord, order SortOrder) {
	switch order {
	case SortByRank:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].SortRank < records[j].SortRank
		})
	case SortByName:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Name != records[j].Name {
				return records[i].Name < records[j].Name
			}
			return records[i].SortRank < records[j].SortRank
		})
	case SortByPeriod:
		// newest period first
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].PeriodID != records[j].PeriodID {
				return comparePeriod(records[i].PeriodID, records[j].PeriodID) > 0
			}
			return records[i].SortRank < records[j].SortRank
		})
	}
}

// comparePeriod compares period ids numerically when both are digit strings
func comparePeriod(a, b string) int {
	if isDigits(a) && isDigits(b) {
		a = strings.TrimLeft(a, "0")
		b = strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
