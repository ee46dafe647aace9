package lottery

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Tables is the immutable reference data for a run: the known lottery types and the
// weekly draw schedule. Build it once with DefaultTables or LoadTables and pass it to
// the components that need it.
type Tables struct {
	types    map[string]Type
	schedule map[time.Weekday][]string
}

// DefaultTables returns the reference tables for the Taiwan Lottery result page.
// Sort ranks follow the publication order of the official draw schedule.
func DefaultTables() *Tables {
	types := []Type{
		{Code: "01", SortRank: 1, Family: FamilyOrdered, SecondGroup: true}, // Super Lotto
		{Code: "07", SortRank: 2, Family: FamilyOrdered},                    // 38 M 6
		{Code: "02", SortRank: 3, Family: FamilyOrdered, SecondGroup: true}, // Lotto 649
		{Code: "08", SortRank: 4, Family: FamilyOrdered},                    // 49 M 6
		{Code: "11", SortRank: 5, Family: FamilyOrdered},                    // Da Fu Cai
		{Code: "03", SortRank: 6, Family: FamilyOrdered},                    // Daily Cash 539
		{Code: "09", SortRank: 7, Family: FamilyOrdered},                    // 39 M 5
		{Code: "05", SortRank: 8, Family: FamilyDigits},                     // 3 Stars
		{Code: "06", SortRank: 9, Family: FamilyDigits},                     // 4 Stars
	}

	schedule := map[time.Weekday][]string{
		time.Monday:    {"01", "07", "03", "09", "05", "06"},
		time.Tuesday:   {"02", "08", "03", "09", "05", "06"},
		time.Wednesday: {"11", "03", "09", "05", "06"},
		time.Thursday:  {"01", "07", "03", "09", "05", "06"},
		time.Friday:    {"02", "08", "03", "09", "05", "06"},
		time.Saturday:  {"11", "03", "09", "05", "06"},
	}

	t, err := NewTables(types, schedule)
	if err != nil {
		panic(fmt.Sprintf("lottery: invalid default tables: %v", err))
	}
	return t
}

// NewTables validates and copies the given types and schedule
func NewTables(types []Type, schedule map[time.Weekday][]string) (*Tables, error) {
	t := &Tables{
		types:    make(map[string]Type, len(types)),
		schedule: make(map[time.Weekday][]string, len(schedule)),
	}

	ranks := make(map[int]string, len(types))
	for _, lt := range types {
		if lt.Code == "" {
			return nil, fmt.Errorf("lottery type with empty code")
		}
		if _, dup := t.types[lt.Code]; dup {
			return nil, fmt.Errorf("duplicate lottery type %q", lt.Code)
		}
		if other, dup := ranks[lt.SortRank]; dup {
			return nil, fmt.Errorf("lottery types %q and %q share sort rank %d", other, lt.Code, lt.SortRank)
		}
		if _, err := ParseFamily(string(lt.Family)); err != nil {
			return nil, fmt.Errorf("lottery type %q: %w", lt.Code, err)
		}
		ranks[lt.SortRank] = lt.Code
		t.types[lt.Code] = lt
	}

	for day, codes := range schedule {
		if len(codes) == 0 {
			continue
		}
		for _, code := range codes {
			if _, ok := t.types[code]; !ok {
				return nil, fmt.Errorf("schedule for %s references unknown lottery type %q", day, code)
			}
		}
		t.schedule[day] = append([]string(nil), codes...)
	}

	return t, nil
}

// Lookup returns the lottery type for a code
func (t *Tables) Lookup(code string) (Type, bool) {
	lt, ok := t.types[code]
	return lt, ok
}

// Types returns every known lottery type ordered by ascending sort rank
func (t *Tables) Types() []Type {
	out := make([]Type, 0, len(t.types))
	for _, lt := range t.types {
		out = append(out, lt)
	}
	SortByRank(out)
	return out
}

// Scheduled returns the codes drawing on the given day, and false when nothing draws that day
func (t *Tables) Scheduled(day time.Weekday) ([]string, bool) {
	codes, ok := t.schedule[day]
	if !ok {
		return nil, false
	}
	return append([]string(nil), codes...), true
}

// IsScheduled reports whether a lottery type draws on the given day
func (t *Tables) IsScheduled(day time.Weekday, code string) bool {
	for _, c := range t.schedule[day] {
		if c == code {
			return true
		}
	}
	return false
}

// SortByRank sorts lottery types by ascending sort rank, keeping page order for ties
func SortByRank(types []Type) {
	sort.SliceStable(types, func(i, j int) bool {
		return types[i].SortRank < types[j].SortRank
	})
}

// tablesFile is the YAML layout accepted by LoadTables
type tablesFile struct {
	Types []struct {
		Code        string `yaml:"code"`
		Sort        int    `yaml:"sort"`
		Family      string `yaml:"family"`
		SecondGroup bool   `yaml:"second_group"`
	} `yaml:"types"`
	Schedule map[string][]string `yaml:"schedule"`
}

// LoadTables reads reference tables from a YAML file.
//
// Example:
//
//	types:
//	  - {code: "01", sort: 1, family: ordered, second_group: true}
//	  - {code: "05", sort: 2, family: digits}
//	schedule:
//	  monday: ["01", "05"]
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tables file: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes YAML reference tables
func ParseTables(data []byte) (*Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tables: %w", err)
	}
	if len(f.Types) == 0 {
		return nil, fmt.Errorf("parsing tables: no lottery types defined")
	}

	types := make([]Type, 0, len(f.Types))
	for _, ft := range f.Types {
		family, err := ParseFamily(ft.Family)
		if err != nil {
			return nil, fmt.Errorf("lottery type %q: %w", ft.Code, err)
		}
		types = append(types, Type{
			Code:        ft.Code,
			SortRank:    ft.Sort,
			Family:      family,
			SecondGroup: ft.SecondGroup,
		})
	}

	schedule := make(map[time.Weekday][]string, len(f.Schedule))
	for name, codes := range f.Schedule {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		schedule[day] = codes
	}

	return NewTables(types, schedule)
}

// ParseWeekday parses an English weekday name or its three-letter abbreviation
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}
