// Package lottery provides the reference data and value types for lottery draw results.
//
// The lottery package holds the immutable tables that say which lottery types exist, how
// their results are encoded on the source page, in what order they are written, and on
// which days of the week they draw. It also resolves the effective draw day for a run and
// renders dates in the era calendar used by the source page.
package lottery
