// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/invowk/tusks/pkg/cueutil"
	"github.com/invowk/tusks/pkg/tree"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// CUEValidatorPrefix marks a validator reference holding a CUE constraint,
// for example "cue:>0 & <=10" or `cue:=~"^v[0-9]+"`.
const CUEValidatorPrefix = "cue:"

// ValidatorFunc checks a converted value.
type ValidatorFunc func(v any) error

// bindValidator turns a validator reference into a function. References are
// "regex:<pattern>", "cue:<constraint>" or the name of a registered validator.
func bindValidator(ref string, named map[string]ValidatorFunc) (ValidatorFunc, error) {
	if pattern, ok := tree.RegexValidator(ref); ok {
		if err := tree.ValidateRegexPattern(pattern); err != nil {
			return nil, err
		}
		re := regexp.MustCompile(pattern)
		return func(v any) error {
			s := fmt.Sprint(v)
			if !re.MatchString(s) {
				return fmt.Errorf("value %q does not match required pattern %q", s, pattern)
			}
			return nil
		}, nil
	}
	if expr, ok := strings.CutPrefix(ref, CUEValidatorPrefix); ok {
		return cueValidator(expr)
	}
	fn, ok := named[ref]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownValidator, ref)
	}
	return fn, nil
}

// cueValidator compiles a CUE constraint once and unifies every value with it.
func cueValidator(expr string) (ValidatorFunc, error) {
	ctx := cuecontext.New()
	constraint := ctx.CompileString(expr, cue.Filename("validator"))
	if constraint.Err() != nil {
		return nil, cueutil.FormatError(constraint.Err(), "validator")
	}

	// cue.Context is not safe for concurrent use.
	var mu sync.Mutex
	return func(v any) error {
		mu.Lock()
		defer mu.Unlock()

		unified := constraint.Unify(ctx.Encode(v))
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			return fmt.Errorf("value %v does not satisfy %s", v, strings.TrimSpace(expr))
		}
		return nil
	}, nil
}
