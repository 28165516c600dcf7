package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// leaf is one scalar of a flattened tree, keyed by its path relative to the
// written node and encoded as JSON.
type leaf struct {
	rel   string
	value string
}

// normalize converts any JSON-marshalable value into the generic
// map/slice/scalar form, keeping numbers exact.
func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("normalizing value: %w", err)
	}
	return out, nil
}

// flatten returns the leaves of value. Nulls, empty objects and empty
// arrays produce no leaves, so writing them deletes the node.
func flatten(value any) ([]leaf, error) {
	norm, err := normalize(value)
	if err != nil {
		return nil, err
	}
	var leaves []leaf
	if err := walk("", norm, &leaves); err != nil {
		return nil, err
	}
	sortLeaves(leaves)
	return leaves, nil
}

func walk(rel string, node any, out *[]leaf) error {
	switch v := node.(type) {
	case nil:
		return nil
	case map[string]any:
		for k, child := range v {
			if err := validateKey(k); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidPath, err)
			}
			if err := walk(Join(rel, k), child, out); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, child := range v {
			if err := walk(Join(rel, strconv.Itoa(i)), child, out); err != nil {
				return err
			}
		}
		return nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding leaf %q: %w", rel, err)
		}
		*out = append(*out, leaf{rel: rel, value: string(raw)})
		return nil
	}
}

// build reassembles leaves into a JSON document. A single leaf with an
// empty relative path is the scalar stored at the node itself.
func build(leaves []leaf) (json.RawMessage, error) {
	if len(leaves) == 0 {
		return nil, nil
	}
	var root any
	for _, l := range leaves {
		scalar, err := decodeScalar(l.value)
		if err != nil {
			return nil, fmt.Errorf("decoding leaf %q: %w", l.rel, err)
		}
		if l.rel == "" {
			root = scalar
			continue
		}
		m, ok := root.(map[string]any)
		if !ok {
			m = map[string]any{}
			root = m
		}
		insert(m, strings.Split(l.rel, "/"), scalar)
	}
	out, err := json.Marshal(arrayify(root))
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return out, nil
}

func decodeScalar(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	err := dec.Decode(&v)
	return v, err
}

func insert(m map[string]any, segs []string, value any) {
	for _, seg := range segs[:len(segs)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = value
}

// arrayify turns objects whose keys are all array indices back into
// arrays, as long as they are not too sparse.
func arrayify(node any) any {
	m, ok := node.(map[string]any)
	if !ok {
		return node
	}
	maxIndex := -1
	numeric := true
	for k, child := range m {
		m[k] = arrayify(child)
		if !numeric {
			continue
		}
		i, ok := arrayIndex(k)
		if !ok {
			numeric = false
			continue
		}
		if i > maxIndex {
			maxIndex = i
		}
	}
	if !numeric || maxIndex >= 2*len(m) {
		return m
	}
	arr := make([]any, maxIndex+1)
	for k, child := range m {
		i, _ := arrayIndex(k)
		arr[i] = child
	}
	return arr
}

func arrayIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return i, true
}

func sortLeaves(leaves []leaf) {
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].rel < leaves[j].rel })
}
