// Package scraper provides HTTP fetching and HTML extraction for the lottery results page.
//
// The scraper package fetches the published results page, decodes it to UTF-8 and exposes
// it as a tree of Node values. On top of that tree it locates the lottery-type anchors
// inside the content region and extracts each type's draw record from the results table
// that follows its anchor. Only the Node adapter knows about goquery.
package scraper
