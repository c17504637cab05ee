// Package ir provides the value types recorded in a trace.
//
// Every parameter and every sampled value held by a distribution is an
// ir.Value. The set of value types is sealed so that equality, deep copies
// and canonical serialization are total over everything a trace can hold.
// ir imports nothing internal; every other package may import it.
//
// Key constraints:
//   - Values are compared structurally (Equal), reals bit-for-bit
//   - Clone never shares mutable storage with its input
//   - Canonical JSON is the only encoding used for fingerprints
package ir
