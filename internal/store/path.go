package store

import (
	"fmt"
	"strings"
)

const forbiddenKeyChars = ".#$[]"

// Join joins segments with "/" and drops empty ones.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// Split validates a path and returns its segments. The root is "" and has
// no segments.
func Split(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, "/")
	for _, seg := range segs {
		if err := validateKey(seg); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
		}
	}
	return segs, nil
}

// Clean validates path and returns it in canonical form.
func Clean(path string) (string, error) {
	segs, err := Split(path)
	if err != nil {
		return "", err
	}
	return strings.Join(segs, "/"), nil
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty segment")
	}
	if strings.ContainsAny(key, forbiddenKeyChars) {
		return fmt.Errorf("segment %q contains one of %q", key, forbiddenKeyChars)
	}
	return nil
}

// Related reports whether a change at one path can affect a subscriber of
// the other: one is an ancestor of, or equal to, the other.
func Related(a, b string) bool {
	return isPrefixPath(a, b) || isPrefixPath(b, a)
}

func isPrefixPath(prefix, path string) bool {
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// ancestors returns the proper ancestors of path, nearest last, excluding
// the root.
func ancestors(path string) []string {
	segs := strings.Split(path, "/")
	out := make([]string, 0, len(segs))
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], "/"))
	}
	return out
}
