// Package core holds small numeric and buffer helpers shared by the
// processors in this module, plus StreamConfig, the validated description of
// the stream a driver feeds them.
package core
