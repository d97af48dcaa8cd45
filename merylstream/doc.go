// Package merylstream reads and writes meryl mer-count databases: a sorted,
// prefix-bucketed set of mers with occurrence counts, optional occurrence
// positions and a count histogram.
//
// A database is a file set of three bit streams sharing a path prefix:
//
//	<prefix>.mcidx  header, one population per bucket, histogram
//	<prefix>.mcdat  per mer: suffix bits then the encoded count
//	<prefix>.mcpos  per mer: min(count, positionsCap) positions (optional)
//
// The top prefixSize bits of every mer are implicit: they are the number of
// the bucket the mer is stored in. Buckets are visited in increasing order
// and mers ascend within a bucket, so a Reader returns mers in increasing
// lexicographic order.
//
// The Writer requires strictly increasing input and computes the totals and
// the histogram while streaming. They are written into a placeholder header
// when the Writer is closed, the only point where the index stream is
// written out of order.
//
// Writer and Reader are not safe for concurrent use, and a file set must not
// be read while it is being written.
package merylstream
