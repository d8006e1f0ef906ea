package runner

import (
	"github.com/ethereum-optimism/infra/op-runrun/types"
)

func (u *Unit) skipped() types.Result {
	return u.skippedResult()
}

func (s *Suite) skipped() types.Result {
	return s.skippedResult()
}

// skippedResult keeps the declared subtree in the output with every test marked
// skipped, so skipped suites still count their tests.
func (s *Suite) skippedResult() *types.SuiteResult {
	res := s.newResult()
	res.Status = types.SuiteStatusSkipped
	res.Results = s.skippedChildren()
	res.Totals = types.Aggregate(res.Results)
	return res
}

func (s *Suite) skippedChildren() []types.Result {
	s.mu.Lock()
	children := append([]node(nil), s.children...)
	s.mu.Unlock()

	results := make([]types.Result, len(children))
	for i, child := range children {
		results[i] = child.skipped()
	}
	return results
}
