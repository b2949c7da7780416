// Package analysis runs the multi-pass transcript analysis pipeline: section
// identification per chunk, quote extraction for flagged sections, then tag,
// summary, and title generation.
package analysis
