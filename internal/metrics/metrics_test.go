// SPDX-License-Identifier: MPL-2.0

package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invowk/tusks/pkg/argv"
	"github.com/invowk/tusks/pkg/dispatch"
	"github.com/invowk/tusks/pkg/schema"
	"github.com/invowk/tusks/pkg/tree"
)

func compileGrammar(t *testing.T) *schema.Grammar {
	t.Helper()
	root, err := tree.NewScope("app").Op(tree.NewOp("greet")).Build()
	require.NoError(t, err)
	g, err := schema.Compile(root, nil)
	require.NoError(t, err)
	return g
}

func TestObserver_Observe(t *testing.T) {
	t.Parallel()

	o := NewObserver()
	o.Observe(dispatch.Event{Unit: "app", Path: []string{"db", "migrate"}, Result: dispatch.Success(), Duration: 20 * time.Millisecond})
	o.Observe(dispatch.Event{Unit: "app", Path: []string{"db", "migrate"}, Result: dispatch.SuccessCode(3), Duration: time.Second})
	o.Observe(dispatch.Event{Unit: "app", Path: []string{"db", "migrate"}, Err: errors.New("boom")})
	o.Observe(dispatch.Event{Unit: "ext", Path: []string{"sync"}, Result: dispatch.Success()})

	assert.InDelta(t, 1, testutil.ToFloat64(o.invocations.WithLabelValues("app", "db migrate", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(o.invocations.WithLabelValues("app", "db migrate", "success_code")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(o.invocations.WithLabelValues("app", "db migrate", OutcomeError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(o.invocations.WithLabelValues("ext", "sync", "success")), 0)

	// The failed invocation does not overwrite the last result code.
	assert.InDelta(t, 3, testutil.ToFloat64(o.exitCode.WithLabelValues("app", "db migrate")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(o.duration))
}

func TestObserver_WriteTextfile(t *testing.T) {
	t.Parallel()

	o := NewObserver()
	o.Observe(dispatch.Event{Unit: "app", Path: []string{"build"}, Result: dispatch.Success()})

	path := filepath.Join(t.TempDir(), "textfile", "tusks.prom")
	require.NoError(t, o.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tusks_invocations_total{operation="build",outcome="success",unit="app"} 1`)
	assert.Contains(t, string(data), "# TYPE tusks_invocation_duration_seconds histogram")

	assert.Error(t, o.WriteTextfile(""))
}

func TestObserver_ThroughDispatcher(t *testing.T) {
	t.Parallel()

	g := compileGrammar(t)
	o := NewObserver()
	d, err := dispatch.Compile(g,
		dispatch.WithHandlerFunc("greet", func(_ context.Context, _ *dispatch.Invocation) (dispatch.Result, error) {
			return dispatch.SuccessCode(7), nil
		}),
		dispatch.WithObserver(o),
	)
	require.NoError(t, err)

	sel, err := argv.New(g).Parse([]string{"greet"})
	require.NoError(t, err)
	res, err := d.Dispatch(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, dispatch.SuccessCode(7), res)

	assert.InDelta(t, 1, testutil.ToFloat64(o.invocations.WithLabelValues("app", "greet", "success_code")), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(o.exitCode.WithLabelValues("app", "greet")), 0)
}
