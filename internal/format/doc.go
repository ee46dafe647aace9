// Package format renders draw records as delimited text lines and parses them back.
//
// A record becomes an info line (name, draw date, period and sort rank joined by the info
// delimiter) followed by one line per number group (numbers joined by the number
// delimiter). Lines are assembled with internal newline markers that are swapped for real
// line breaks once the whole record is built.
package format
