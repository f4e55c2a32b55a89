// Package peers provides the command dispatcher behind the peers tool.
//
// A Registry maps short command names to an Entry holding a one-line
// description and a constructor for the Command that implements it. The
// Dispatcher parses the top-level options, takes the first positional
// argument as the command name and hands every remaining argument, untouched,
// to the command's own flag set before running it:
//
//	$ peers [-h] [-D] <command> [<argument>...]
//
// Running
//
//	$ peers --help
//
// prints every registered command, sorted by name, with its description
// wrapped to the width of the terminal.
//
// Errors returned by a command are reported as a one-line usage error unless
// debugging is enabled (-D, or PEERS_DEBUG=true), in which case they are
// returned to the caller as they are.
package peers
