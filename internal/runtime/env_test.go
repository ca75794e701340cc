// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/invowk/tusks/internal/testutil"
)

func TestEnvName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"src", "TUSKS_ARG_SRC"},
		{"dry-run", "TUSKS_ARG_DRY_RUN"},
		{"max_depth", "TUSKS_ARG_MAX_DEPTH"},
		{"v2", "TUSKS_ARG_V2"},
	}
	for _, tt := range tests {
		if got := EnvName(ArgEnvPrefix, tt.name); got != tt.want {
			t.Errorf("EnvName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFilterInvocationEnvVars(t *testing.T) {
	t.Parallel()

	in := []string{
		"PATH=/bin",
		"TUSKS_ARG_NAME=x",
		"TUSKS_SCOPE_ENV=prod",
		"TUSKS_UNIT=app",
		"TUSKS_OPERATION=greet",
		"TUSKS_DISPATCH_ID=abc",
		"TUSKS_UI_VERBOSE=true",
		"MALFORMED",
	}
	got := FilterInvocationEnvVars(in)
	want := []string{"PATH=/bin", "TUSKS_UI_VERBOSE=true", "MALFORMED"}
	if !slices.Equal(got, want) {
		t.Errorf("FilterInvocationEnvVars() = %v, want %v", got, want)
	}
}

func TestEnvSliceRoundTrip(t *testing.T) {
	t.Parallel()

	env := EnvFromSlice([]string{"B=2", "A=1", "A=3", "EMPTY=", "=bad"})
	if got := EnvToSlice(env); !slices.Equal(got, []string{"A=3", "B=2", "EMPTY="}) {
		t.Errorf("EnvToSlice() = %v", got)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "base.env"), "# shared\nREGION=us\nexport TOKEN='a b'\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "local.env"), "REGION=\"eu\"\n")

	env := map[string]string{"KEEP": "yes"}
	err := LoadEnvFiles(env, []string{"base.env", filepath.Join(dir, "local.env"), "missing.env?"}, dir)
	if err != nil {
		t.Fatalf("LoadEnvFiles() returned error: %v", err)
	}
	if env["REGION"] != "eu" || env["TOKEN"] != "a b" || env["KEEP"] != "yes" {
		t.Errorf("unexpected env: %v", env)
	}

	if err := LoadEnvFiles(env, []string{"missing.env"}, dir); err == nil {
		t.Error("expected error for a missing required env file")
	}
}
