// Package config loads and merges colsolve configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (COLSOLVE_ORACLE_ENDPOINT, COLSOLVE_SOLVER_SAMPLES, etc.)
//  3. Config file ($XDG_CONFIG_HOME/colsolve/config.json, or $COLSOLVE_CONFIG)
//  4. Built-in defaults
//
// Keys are dotted section paths such as "oracle.endpoint" or
// "solver.exhaustiveLimit". Use [Load] to obtain a merged and validated
// [Config], [Save] to write one, and [SetField] to update a single key.
package config
