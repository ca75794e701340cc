// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/invowk/tusks/internal/runtime"
	"github.com/invowk/tusks/pkg/dispatch"
	"github.com/invowk/tusks/pkg/resolve"
	"github.com/invowk/tusks/pkg/tree"
)

// handlerFactory binds scripted operations to the virtual shell and every
// other operation to a handler that describes the resolved invocation.
func handlerFactory(rt *runtime.VirtualRuntime, w io.Writer) dispatch.HandlerFactory {
	scripts := rt.Factory()
	return func(path []string, op *tree.Operation) (dispatch.Handler, bool) {
		if h, ok := scripts(path, op); ok {
			return h, true
		}
		return describeHandler{w: w}, true
	}
}

// describeHandler prints the operation it was dispatched to, one line per
// resolved argument and scope field.
type describeHandler struct {
	w io.Writer
}

func (h describeHandler) Handle(_ context.Context, inv *dispatch.Invocation) (dispatch.Result, error) {
	var b strings.Builder
	b.WriteString(CmdStyle.Render(inv.Unit + " " + dispatch.PathKey(inv.Path...)))
	b.WriteByte('\n')
	writeArguments(&b, "", inv.Args)
	for _, sv := range inv.Scope.Chain() {
		label := sv.Type
		if label == "" {
			label = "scope"
		}
		writeArguments(&b, label+".", sv.Fields)
	}
	if len(inv.Rest) > 0 {
		fmt.Fprintf(&b, "  -- %s\n", strings.Join(inv.Rest, " "))
	}
	if _, err := io.WriteString(h.w, b.String()); err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Success(), nil
}

func writeArguments(b *strings.Builder, prefix string, args resolve.Arguments) {
	for _, a := range args {
		value := SubtitleStyle.Render("<unset>")
		if a.Value.Present {
			value = a.Value.String()
		}
		fmt.Fprintf(b, "  %s%s = %s\n", prefix, a.Name, value)
	}
}
