// Package pagination provides sorting and offset/limit paging for CLI result
// lists.
//
//   - Params: CLI flag values and their validation
//   - Sorter: field-keyed sorting with field validation
//
// Commands that print lists of rows (footprints, projects) share it so that
// --sort, --limit and --offset behave the same everywhere.
package pagination
