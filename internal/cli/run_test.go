package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_Help(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "long flag", args: []string{"snapfind", "--help"}},
		{name: "short flag", args: []string{"snapfind", "-h"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			code := Run(nil, &stdout, &stderr, tc.args, nil, nil)

			require.Zero(t, code)
			require.Empty(t, stderr.String())
			require.Contains(t, stdout.String(), "snapfind - interactive fuzzy finder")
			require.Contains(t, stdout.String(), "--scheme")
		})
	}
}

func TestRun_UnknownFlagIsIOFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Run(nil, &stdout, &stderr, []string{"snapfind", "--not-a-flag"}, nil, nil)

	require.Equal(t, 2, code)
	require.True(t, strings.Contains(stderr.String(), "error:"))
}

func TestRun_UnknownSchemeIsIOFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Run(nil, &stdout, &stderr, []string{"snapfind", "--scheme", "bogus"}, nil, nil)

	require.Equal(t, 2, code)
	require.Contains(t, stderr.String(), "unknown scheme")
}

func TestResolveHeight_DefaultsWhenUnset(t *testing.T) {
	require.Equal(t, 20, resolveHeight(0))
	require.Equal(t, 15, resolveHeight(15))
}
