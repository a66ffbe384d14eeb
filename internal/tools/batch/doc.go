// Package batch runs one tool operation over several ids.
//
// Tools that accept either a single id or an array of ids parse the
// argument with ParseStringOrArray, run the operation with Process and
// report every outcome, so one failed id does not hide the others.
package batch
