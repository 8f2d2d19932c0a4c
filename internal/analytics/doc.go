// Package analytics computes coverage statistics and recommendations over a
// (usually filtered) slice of validated vaccination records.
//
// Every function is pure: it reads its input, never modifies it, and returns
// newly allocated results. Empty input yields empty results rather than
// errors, and single-record groups report a nil standard deviation.
//
// Means are simple arithmetic means of record coverage values and standard
// deviations use the sample (n-1) form.
package analytics
