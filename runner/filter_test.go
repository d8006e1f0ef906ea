package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		pattern string
		path    []string
		want    bool
	}{
		{pattern: "", path: []string{"any", "thing"}, want: true},
		{pattern: "Math/**", path: []string{"Math", "2+2=4"}, want: true},
		{pattern: "Math/**", path: []string{"Math", "Strings", "concat"}, want: true},
		{pattern: "Math/*", path: []string{"Math", "Strings", "concat"}, want: false},
		{pattern: "**/concat", path: []string{"Math", "Strings", "concat"}, want: true},
		{pattern: "Strings/*", path: []string{"Math", "Strings", "concat"}, want: false},
		{pattern: "{Math,Square}/**", path: []string{"Square", "of 3"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			f, err := newFilter(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.match(tt.path))
		})
	}
}

func TestFilter_Invalid(t *testing.T) {
	_, err := newFilter("Math/[")
	require.Error(t, err)
}
