// Package viz renders model topology and run state for the terminal.
//
//   - [Summary]: states as boxes tinted by their display colour, then the
//     flow list in transition order
//   - [Theme]: colour schemes shared with the playback TUI
package viz
