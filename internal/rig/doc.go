// Package rig describes the file layout of each supported test rig as
// data: expected column sets, summary-line positions, and the cycle
// derivation formula. New rigs are added by registering a schema or
// loading one from YAML, not by writing code.
package rig
