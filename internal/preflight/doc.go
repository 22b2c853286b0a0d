// Package preflight provides readiness checks for the directories and
// external tools crchecker depends on.
//
// The CLI "crchecker doctor" command runs RunAll and CheckSystemDeps and
// renders the results; the verify path uses CheckDirectoryAccess on the state
// directory before taking an album lock.
package preflight
