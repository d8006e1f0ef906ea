package runner

import (
	"context"

	"github.com/sourcegraph/conc"

	"github.com/ethereum-optimism/infra/op-runrun/types"
)

// schedule runs the direct children of s according to its mode.
// Results always land in declaration order, whatever order they complete in.
func (s *Suite) schedule(ctx context.Context) []types.Result {
	s.mu.Lock()
	children := append([]node(nil), s.children...)
	s.mu.Unlock()

	results := make([]types.Result, len(children))
	switch s.mods.mode() {
	case modeConcurrent:
		var wg conc.WaitGroup
		for i, child := range children {
			wg.Go(func() {
				results[i] = s.runChild(ctx, child)
			})
		}
		wg.Wait()
	case modeSequence, modeStory:
		story := s.mods.mode() == modeStory
		halted := false
		for i, child := range children {
			if halted {
				results[i] = child.skipped()
				continue
			}
			results[i] = s.runChild(ctx, child)
			if story && results[i].HasFailure() {
				s.env.log.Debug("Story halted", "suite", s.FullPath(), "at", results[i].ResultName(),
					"remaining", len(children)-i-1)
				halted = true
			}
		}
	}
	return results
}

// runChild runs child unless the run was cancelled before it could start
func (s *Suite) runChild(ctx context.Context, child node) types.Result {
	if ctx.Err() != nil {
		return child.skipped()
	}
	return child.runIn(ctx, s)
}
