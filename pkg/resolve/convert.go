// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"time"
)

// Converter parses a raw value for one type tag.
type Converter func(raw string) (any, error)

// DefaultConverters returns the built-in converters keyed by type tag.
// Tags without a converter resolve to the raw string.
func DefaultConverters() map[string]Converter {
	return map[string]Converter{
		"string": func(raw string) (any, error) { return raw, nil },
		"bool": func(raw string) (any, error) {
			return strconv.ParseBool(raw)
		},
		"int": func(raw string) (any, error) {
			n, err := strconv.ParseInt(raw, 10, 0)
			return int(n), unwrapNum(err)
		},
		"int64": func(raw string) (any, error) {
			n, err := strconv.ParseInt(raw, 10, 64)
			return n, unwrapNum(err)
		},
		"uint": func(raw string) (any, error) {
			n, err := strconv.ParseUint(raw, 10, 0)
			return uint(n), unwrapNum(err)
		},
		"u8": func(raw string) (any, error) {
			n, err := strconv.ParseUint(raw, 10, 8)
			return uint8(n), unwrapNum(err)
		},
		"float": func(raw string) (any, error) {
			f, err := strconv.ParseFloat(raw, 64)
			return f, unwrapNum(err)
		},
		"duration": func(raw string) (any, error) {
			return time.ParseDuration(raw)
		},
		"path": func(raw string) (any, error) {
			if raw == "" {
				return nil, errors.New("path is empty")
			}
			return filepath.Clean(raw), nil
		},
		"url": func(raw string) (any, error) {
			u, err := url.Parse(raw)
			if err != nil {
				return nil, err
			}
			if u.Scheme == "" || u.Host == "" {
				return nil, fmt.Errorf("missing scheme or host")
			}
			return u, nil
		},
	}
}

// unwrapNum strips the strconv.NumError wrapper so messages read
// "invalid syntax" instead of repeating the input.
func unwrapNum(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return numErr.Err
	}
	return err
}
