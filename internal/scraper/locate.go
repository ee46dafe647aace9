package scraper

import (
	"errors"
	"fmt"

	"github.com/pfrederiksen/catchlottery/internal/lottery"
)

// ContentSelector matches the region of the results page that holds the result tables
const ContentSelector = "div#right_full"

// ErrNoContent is returned when the page has no content region
var ErrNoContent = errors.New("content region not found")

// Region returns the first element matching selector
func Region(doc Node, selector string) (Node, error) {
	if selector == "" {
		selector = ContentSelector
	}
	matches := doc.Select(selector)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, selector)
	}
	return matches[0], nil
}

// LocateTypes scans the region for named anchors and returns the known lottery types
// they mark, ordered by ascending sort rank. Each type is reported once.
func LocateTypes(region Node, tables *lottery.Tables) []lottery.Type {
	var found []lottery.Type
	seen := make(map[string]bool)

	for _, anchor := range region.Select("a[name]") {
		code, _ := anchor.Attr("name")
		lt, ok := tables.Lookup(code)
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		found = append(found, lt)
	}

	lottery.SortByRank(found)
	return found
}
