// SPDX-License-Identifier: MPL-2.0

// Package engine reconciles a declared package tree against the filesystem.
//
// The Reconciler walks the tree depth-first, dispatches one fetch goroutine
// per valid node without waiting for earlier nodes to finish, and collects
// outcomes behind a completion barrier so results are reported in dispatch
// order no matter how the fetches interleave. Post-checkout hooks run in the
// owning node's goroutine after its fetch; the help-tag re-index runs at most
// once per pass, strictly after the barrier. Errors are contained at node
// granularity: one failing package never aborts the rest of a pass.
//
// The Manager owns the currently registered tree and effective configuration
// for a long-lived process, so no engine state is ambient or global.
package engine
