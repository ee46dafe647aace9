package scraper

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/catchlottery/internal/lottery"
)

// Row offsets inside a results table
const (
	rowName    = 0
	rowPeriod  = 1
	rowDate    = 2
	rowNumbers = 4
	rowSecond  = 5
)

// Extract reads the draw record of one lottery type from the results table that follows
// its anchor. ok is false when the page has no table for the type; err is set when a
// table exists but does not have the expected layout.
func Extract(region Node, lt lottery.Type) (rec *lottery.DrawRecord, ok bool, err error) {
	rows := resultRows(region, lt.Code)
	if len(rows) == 0 {
		return nil, false, nil
	}
	if len(rows) <= rowNumbers {
		return nil, false, fmt.Errorf("lottery type %s: results table has %d rows, want at least %d", lt.Code, len(rows), rowNumbers+1)
	}

	nameCell, err := valueCell(rows, rowName)
	if err != nil {
		return nil, false, fmt.Errorf("lottery type %s: %w", lt.Code, err)
	}
	period, err := firstSpanText(rows, rowPeriod)
	if err != nil {
		return nil, false, fmt.Errorf("lottery type %s: %w", lt.Code, err)
	}
	date, err := firstSpanText(rows, rowDate)
	if err != nil {
		return nil, false, fmt.Errorf("lottery type %s: %w", lt.Code, err)
	}

	numbersCell, err := valueCell(rows, rowNumbers)
	if err != nil {
		return nil, false, fmt.Errorf("lottery type %s: %w", lt.Code, err)
	}

	var numbers []string
	switch lt.Family {
	case lottery.FamilyOrdered:
		numbers = orderedNumbers(numbersCell, true)
	case lottery.FamilyDigits:
		numbers, err = digitNumbers(numbersCell)
		if err != nil {
			return nil, false, fmt.Errorf("lottery type %s: %w", lt.Code, err)
		}
	default:
		return nil, false, fmt.Errorf("lottery type %s: unknown family %q", lt.Code, lt.Family)
	}
	if len(numbers) == 0 {
		return nil, false, fmt.Errorf("lottery type %s: no winning numbers found", lt.Code)
	}

	rec = &lottery.DrawRecord{
		TypeCode:     lt.Code,
		SortRank:     lt.SortRank,
		Name:         nameCell.Text(),
		DrawDate:     stripSpace(date),
		PeriodID:     period,
		NumberGroups: [][]string{numbers},
	}
	for _, f := range []struct{ name, value string }{
		{"name", rec.Name},
		{"period", rec.PeriodID},
		{"draw date", rec.DrawDate},
	} {
		if f.value == "" {
			return nil, false, fmt.Errorf("lottery type %s: empty %s", lt.Code, f.name)
		}
	}

	if lt.SecondGroup && len(rows) > rowSecond {
		if cell, err := valueCell(rows, rowSecond); err == nil {
			if second := orderedNumbers(cell, false); len(second) > 0 {
				rec.NumberGroups = append(rec.NumberGroups, second)
			}
		}
	}

	return rec, true, nil
}

// resultRows returns the rows of the first table inside the first div following the
// type's anchor
func resultRows(region Node, code string) []Node {
	var anchor Node
	for _, a := range region.Select("a[name]") {
		if name, _ := a.Attr("name"); name == code {
			anchor = a
			break
		}
	}
	if anchor == nil {
		return nil
	}
	box, ok := anchor.NextSibling("div")
	if !ok {
		return nil
	}
	tables := box.Select("table")
	if len(tables) == 0 {
		return nil
	}
	return tables[0].Children("tr")
}

// valueCell returns the second cell of a row, the first one being its label
func valueCell(rows []Node, row int) (Node, error) {
	cells := rows[row].Children("td")
	if len(cells) < 2 {
		return nil, fmt.Errorf("row %d has %d cells, want at least 2", row, len(cells))
	}
	return cells[1], nil
}

func firstSpanText(rows []Node, row int) (string, error) {
	cell, err := valueCell(rows, row)
	if err != nil {
		return "", err
	}
	spans := cell.Children("span")
	if len(spans) == 0 {
		return "", fmt.Errorf("row %d has no value span", row)
	}
	return spans[0].Text(), nil
}

// orderedNumbers collects the non-empty text directly inside the cell's spans (and spans
// nested in them) in the order they appear. With untilBreak set only spans before the
// cell's last <br> count; a cell without <br> uses all of its spans.
func orderedNumbers(cell Node, untilBreak bool) []string {
	contents := cell.Contents()

	stop := len(contents)
	if untilBreak {
		for i, c := range contents {
			if c.Is("br") {
				stop = i
			}
		}
	}

	var numbers []string
	for _, c := range contents[:stop] {
		if c.Is("span") {
			collectSpanText(c, true, &numbers)
		}
	}
	return numbers
}

func collectSpanText(n Node, inSpan bool, out *[]string) {
	for _, c := range n.Contents() {
		if c.IsText() {
			if t := strings.ReplaceAll(c.Text(), "\u00a0", ""); inSpan && t != "" {
				*out = append(*out, t)
			}
			continue
		}
		collectSpanText(c, c.Is("span"), out)
	}
}

// digitNumbers splits the cell's first span into one number per character
func digitNumbers(cell Node) ([]string, error) {
	spans := cell.Children("span")
	if len(spans) == 0 {
		return nil, fmt.Errorf("winning number cell has no span")
	}

	digits := stripSpace(spans[0].Text())
	numbers := make([]string, 0, len(digits))
	for _, r := range digits {
		numbers = append(numbers, string(r))
	}
	return numbers, nil
}

// stripSpace removes all whitespace, including non-breaking spaces
func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
