// Package exitcodes defines the exit codes of op-runrun.
package exitcodes

// * Success (0): every executed test passed
// * TestFailure (1): at least one test or suite hook failed
// * RuntimeErr (2): the run could not happen, e.g. a bad plan file or an invalid test tree
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
