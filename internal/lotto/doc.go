// Package lotto is the 6/45 statistics engine: synthetic draw generation,
// frequency analysis, weighted sampling without replacement and single-set
// statistics. Everything here is pure computation over its arguments; callers
// own randomness through a Source and own any caching.
package lotto
