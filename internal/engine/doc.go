// Package engine implements the backport core: commit-chain collection,
// fork detection, and the history rewrite that reconstructs each branch from
// its assigned commits plus everything merged forward from more-senior
// branches.
//
// The engine owns no graph-shaped state beyond its forward/inverse commit
// maps; commits are represented purely by content-addressed ids and resolved
// through the store on demand. The run is single-threaded and fully
// synchronous. Its only suspension point is the edit step, and branch refs
// move only in the final publish step, so an abort anywhere earlier leaves
// every branch untouched.
package engine
