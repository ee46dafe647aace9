package lottery

import (
	"fmt"
	"strings"
)

// Family identifies how a lottery type publishes its winning numbers
type Family string

const (
	// FamilyOrdered types publish discrete balls, in draw order and size order
	FamilyOrdered Family = "ordered"
	// FamilyDigits types publish a fixed-width digit string
	FamilyDigits Family = "digits"
)

// ParseFamily converts a table value into a Family
func ParseFamily(s string) (Family, error) {
	switch Family(strings.ToLower(strings.TrimSpace(s))) {
	case FamilyOrdered:
		return FamilyOrdered, nil
	case FamilyDigits:
		return FamilyDigits, nil
	default:
		return "", fmt.Errorf("unknown family %q (must be %q or %q)", s, FamilyOrdered, FamilyDigits)
	}
}

// Type is a known lottery product
type Type struct {
	Code        string `json:"code"`
	SortRank    int    `json:"sort_rank"`
	Family      Family `json:"family"`
	SecondGroup bool   `json:"second_group,omitempty"` // publishes a supplementary number set
}

// DrawRecord is the result of one lottery type extracted from the source page
type DrawRecord struct {
	TypeCode     string     `json:"type_code"`
	SortRank     int        `json:"sort_rank"`
	Name         string     `json:"name"`
	DrawDate     string     `json:"draw_date"`
	PeriodID     string     `json:"period_id"`
	NumberGroups [][]string `json:"number_groups"`
}

// Numbers returns every number of the record, group after group
func (r *DrawRecord) Numbers() []string {
	var all []string
	for _, g := range r.NumberGroups {
		all = append(all, g...)
	}
	return all
}
