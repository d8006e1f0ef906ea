// Package runner declares and executes hierarchical test trees.
//
// A Runner collects suites and tests through Describe and It, then runs the tree
// once. Children of a suite run concurrently unless the suite is declared with
// Sequence or Story; Story additionally skips the remaining children after the
// first failure. Every suite owns a Context copied from its parent when it is
// declared, and every test run receives a fresh copy of its suite's Context, so
// siblings never observe each other's values.
//
//	r, _ := runner.New(runner.Config{Title: "math", Chronometer: true})
//	r.Describe("Math", func(s *runner.Scope) {
//		s.It("2+2=4", func(ctx context.Context, tc *runner.Context) error {
//			if 2+2 != 4 {
//				tc.Fail("bad sum", runner.Details{Expected: 4, Actual: 2 + 2})
//			}
//			return nil
//		})
//	})
//	res, err := r.Run(context.Background())
//
// A body fails with failure-assertion through Context.Fail or the testify
// TestingT methods of Context, and with failure-exception when it returns an
// error, panics or times out. No failure escapes Run.
package runner
