// Package git provides low-level Git operations for the backport engine.
//
// Reads (ref resolution, commit metadata, ancestry) go through go-git
// in-process. Mutations (tree merges, commit creation, ref updates) shell out
// to the git binary, which keeps the working tree untouched: everything the
// engine writes is plumbing-level object creation, and branch refs only move
// in the final publish step.
//
// This package should be the only place where direct git commands are executed.
package git
