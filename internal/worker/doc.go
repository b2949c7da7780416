// Package worker drives videos through the processing pipeline: it polls the
// library for work and runs the download, transcription, and analysis stages.
package worker
