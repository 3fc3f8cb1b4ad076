// Package meter times a scoped region and turns the elapsed wall-clock time
// into a throughput for an array of known shape and element size.
package meter
