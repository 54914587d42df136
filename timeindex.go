package robotloop

// TimeIndex identifies an element of a Series by its position in append
// order. It is non-negative and monotonically increasing; index 0 is the
// first element ever produced by a given Series.
type TimeIndex int64
