// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"maps"
	"slices"
	"strings"

	"github.com/invowk/tusks/pkg/dispatch"
)

const (
	// ArgEnvPrefix prefixes resolved argument variables.
	ArgEnvPrefix = "TUSKS_ARG_"
	// ScopeEnvPrefix prefixes parameter scope field variables.
	ScopeEnvPrefix = "TUSKS_SCOPE_"
	// UnitEnvVar names the unit that owns the running operation.
	UnitEnvVar = "TUSKS_UNIT"
	// OperationEnvVar holds the operation path, space separated.
	OperationEnvVar = "TUSKS_OPERATION"
	// DispatchIDEnvVar carries the dispatch correlation id.
	DispatchIDEnvVar = "TUSKS_DISPATCH_ID"
)

// EnvName builds the variable name of an argument or field: the name is
// upper-cased and every character outside [A-Z0-9_] becomes '_'.
func EnvName(prefix, name string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(name))
	b.WriteString(prefix)
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// InvocationEnv returns the variables describing one invocation. Absent
// optional values are left unset; flags are "true" or "false"; multi-valued
// arguments are joined with spaces. Scope fields shadow same-named fields of
// farther ancestors.
func InvocationEnv(inv *dispatch.Invocation) map[string]string {
	env := map[string]string{
		UnitEnvVar:      inv.Unit,
		OperationEnvVar: dispatch.PathKey(inv.Path...),
	}
	if inv.ID != "" {
		env[DispatchIDEnvVar] = inv.ID
	}
	for _, a := range inv.Args {
		if a.Value.Present {
			env[EnvName(ArgEnvPrefix, a.Name)] = a.Value.String()
		}
	}
	for _, sv := range inv.Scope.Chain() {
		for _, f := range sv.Fields {
			key := EnvName(ScopeEnvPrefix, f.Name)
			if _, shadowed := env[key]; shadowed || !f.Value.Present {
				continue
			}
			env[key] = f.Value.String()
		}
	}
	return env
}

// PositionalParams returns the shell positional parameters: the values of
// positional arguments in declaration order, then trailing tokens.
func PositionalParams(inv *dispatch.Invocation) []string {
	var params []string
	for _, a := range inv.Args {
		if decl := inv.Operation.Arg(a.Name); decl == nil || !decl.Positional {
			continue
		}
		params = append(params, a.Value.Strings()...)
	}
	return append(params, inv.Rest...)
}

// EnvFromSlice converts KEY=VALUE pairs into a map. Later entries win.
func EnvFromSlice(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}

// EnvToSlice converts a map of environment variables to a sorted slice.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		result = append(result, k+"="+env[k])
	}
	return result
}

// FilterInvocationEnvVars removes invocation variables from a host
// environment so a script that runs tusks again does not leak its own
// arguments into the nested run. TUSKS_-prefixed configuration overrides
// are kept.
func FilterInvocationEnvVars(environ []string) []string {
	result := make([]string, 0, len(environ))
	for _, e := range environ {
		name, _, _ := strings.Cut(e, "=")
		if shouldFilterEnvVar(name) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func shouldFilterEnvVar(name string) bool {
	switch name {
	case UnitEnvVar, OperationEnvVar, DispatchIDEnvVar:
		return true
	}
	return strings.HasPrefix(name, ArgEnvPrefix) || strings.HasPrefix(name, ScopeEnvPrefix)
}
