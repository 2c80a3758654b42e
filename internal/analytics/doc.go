// Package analytics is the review aggregation engine: temporal grouping,
// per-period statistics, trend estimation, forecasting, risk detection,
// period comparison and clustering.
//
// Every function is pure. Inputs are never mutated, no I/O is performed and
// all entry points are safe for concurrent use. Missing or malformed review
// fields are treated as absent, and every division by zero resolves to 0.
package analytics
