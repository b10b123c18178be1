// Package terminal is the windowing and input collaborator of the demo, built on tcell.
//
// A pump goroutine forwards tcell events into a buffered channel; once per frame the input stage
// drains it into an InputResource snapshot, so callbacks never block on the terminal.
// Drawing helpers write to the screen from thread-local callbacks only.
package terminal
