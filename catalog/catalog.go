// Package catalog holds the suites shipped with op-runrun.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-runrun/registry"
	"github.com/ethereum-optimism/infra/op-runrun/runner"
)

var Math = registry.Definition{
	Name:        "Math",
	Description: "arithmetic checks with a nested string suite, one test fails on purpose",
	Define: func(s *runner.Scope) {
		s.It("2+2=4", func(ctx context.Context, tc *runner.Context) error {
			if sum := add(2, 2); sum != 4 {
				tc.Fail("2+2 should be 4", runner.Details{Expected: 4, Actual: sum})
			}
			return nil
		})
		s.It("2+2=5", func(ctx context.Context, tc *runner.Context) error {
			if sum := add(2, 2); sum != 5 {
				tc.Fail("2+2 should be 5", runner.Details{Expected: 5, Actual: sum})
			}
			return nil
		})
		s.Describe("Strings", func(s *runner.Scope) {
			s.It("concat", func(ctx context.Context, tc *runner.Context) error {
				require.Equal(tc, "ab", strings.Join([]string{"a", "b"}, ""))
				return nil
			})
		}, runner.Sequence())
	},
}

var SquareClass = registry.Definition{
	Name:        "Square Class",
	Description: "geometry checks on Square",
	Define: func(s *runner.Scope) {
		if err := s.Set("size", 4); err != nil {
			panic(err)
		}
		s.It("should create an instance of Square", func(ctx context.Context, tc *runner.Context) error {
			size, _ := runner.Lookup[int](tc, "size")
			sq := NewSquare(size, 1, 1)
			require.Equal(tc, size, sq.Size)
			return nil
		})
		s.Describe("splitIntoQuarters", func(s *runner.Scope) {
			s.It("should split a square into 4 equal squares", func(ctx context.Context, tc *runner.Context) error {
				quarters := NewSquare(4, 2, 2).SplitIntoQuarters()
				if len(quarters) != 4 {
					tc.Fail(fmt.Sprintf("expected 4 quarters but got %d", len(quarters)),
						runner.Details{Expected: 4, Actual: len(quarters)})
				}
				for _, q := range quarters {
					if q.Size != 2 {
						tc.Fail("unexpected quarter size", runner.Details{Expected: 2, Actual: q.Size})
					}
				}
				return nil
			})
			s.It("quarters should cover the same area", func(ctx context.Context, tc *runner.Context) error {
				sq := NewSquare(4, 2, 2)
				expected := []Square{
					NewSquare(2, 2, 2),
					NewSquare(2, 4, 2),
					NewSquare(2, 2, 4),
					NewSquare(2, 4, 4),
				}
				assert.Equal(tc, expected, sq.SplitIntoQuarters())

				total := 0
				for _, q := range sq.SplitIntoQuarters() {
					total += q.Area()
				}
				assert.Equal(tc, sq.Area(), total)
				return nil
			})
		}, runner.Story())
	},
}

// All lists the catalog in registration order
var All = []registry.Definition{Math, SquareClass}

// Register adds the whole catalog to reg
func Register(reg *registry.Registry) error {
	for _, def := range All {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func add(a, b int) int {
	return a + b
}
