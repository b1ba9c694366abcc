// Package promotion decides which clan members are due for a rank-up.
//
// Rules are parsed from "days=rank" text into a RuleTable, filters from
// comma-separated lists into FilterSets, and Evaluate matches a roster against
// both for a given date. Nothing here performs I/O or reads the clock; the
// caller supplies the roster, the date and the notification state, and
// delivers the returned notifications itself.
package promotion
