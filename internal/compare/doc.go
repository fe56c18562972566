// Package compare reconciles two collections of prediction records, a test
// run and a reference run, keyed by filepath.
//
// Each record is flattened into an ordered set of comparable fields
// (detection_0_conf, classification_1_class, prediction_score, ...).
// Rows sharing a filepath are compared field by field under either a
// tolerance policy (absolute error against a per-class threshold, with RMSE
// accumulated per metric class) or a rounding policy (exact equality of
// values rounded at flatten time). The result is a Report that can be
// rendered as a bounded, deterministic transcript.
//
// The package performs no I/O beyond writing a transcript to a caller
// supplied io.Writer.
package compare
