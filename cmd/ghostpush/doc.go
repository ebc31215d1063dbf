// Package ghostpush provides the command-line interface for the ghostpush
// tool. It configures subcommands (summary, scan, audit, config, completion),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/ghostpush/ghostpush/cmd/ghostpush"
//	func main() { ghostpush.Execute() }
package ghostpush
