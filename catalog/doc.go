// Package catalog loads the assessment product catalog.
//
// A catalog source is delimited UTF-8 text with a header row naming at least
// the columns in RequiredColumns. Fields may be double-quoted and a backslash
// escapes the next character. Rows with too many fields are skipped with a
// warning, short rows read missing columns as blank, and rows without a
// product name or description are dropped. Missing keywords default to the
// lowercased category, and every item gets a derived search text used as
// embedding input.
//
// A loaded Catalog is never mutated.
package catalog
