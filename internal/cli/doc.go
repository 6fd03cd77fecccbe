// Package cli wires together the Cobra command tree for the colsolve binary.
//
// It defines the root command and all subcommands (solve, dimensions,
// decode, encode, config, oracle, cache, serve, version), binds flags, reads
// configuration, invokes the solver engine, and returns deterministic exit
// codes.
package cli
