// Package preflight provides readiness checks for the paths a merge
// depends on: the output and state directories, free space on the output
// filesystem, and each source archive.
//
// The merge command runs RunAll before opening any archive and refuses to
// start when a check fails. The "photomerge check" command prints the same
// results without merging.
package preflight
