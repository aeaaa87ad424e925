package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// pathToken is one step of a parsed field path: either a field name or an
// array index.
type pathToken struct {
	name    string
	index   int
	isIndex bool
}

// FieldPath is a pre-parsed source or destination path. Parsing happens once
// per rule, not once per item, so walking a value tree in the sync hot loop
// never re-splits strings.
type FieldPath struct {
	raw    string
	tokens []pathToken
}

// ParsePath parses dot notation with numeric or bracketed array indexes.
// "salesPrices.0.price" and "salesPrices[0].price" are equivalent.
func ParsePath(raw string) (FieldPath, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return FieldPath{}, ErrEmptyPath
	}

	var tokens []pathToken
	for _, segment := range strings.Split(trimmed, ".") {
		if segment == "" {
			return FieldPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
		}

		name := segment
		rest := ""
		if i := strings.IndexByte(segment, '['); i >= 0 {
			name = segment[:i]
			rest = segment[i:]
		}

		if name != "" {
			if idx, err := strconv.Atoi(name); err == nil {
				if idx < 0 {
					return FieldPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
				}
				tokens = append(tokens, pathToken{index: idx, isIndex: true})
			} else {
				tokens = append(tokens, pathToken{name: name})
			}
		}

		for rest != "" {
			if rest[0] != '[' {
				return FieldPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return FieldPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil || idx < 0 {
				return FieldPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
			}
			tokens = append(tokens, pathToken{index: idx, isIndex: true})
			rest = rest[end+1:]
		}
	}

	if len(tokens) == 0 {
		return FieldPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}
	return FieldPath{raw: trimmed, tokens: tokens}, nil
}

// String returns the original path expression.
func (p FieldPath) String() string {
	return p.raw
}

// Resolve walks the path over a JSON-shaped value tree (maps, slices,
// scalars). Returns false when any step is absent or shaped differently.
func (p FieldPath) Resolve(root any) (any, bool) {
	current := root
	for _, token := range p.tokens {
		if token.isIndex {
			slice, ok := current.([]any)
			if !ok || token.index >= len(slice) {
				return nil, false
			}
			current = slice[token.index]
			continue
		}

		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = object[token.name]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// Set writes a value into a map-shaped tree, creating intermediate objects
// for missing name steps. Index steps must land inside existing slices.
func (p FieldPath) Set(root map[string]any, value any) error {
	var current any = root

	for i, token := range p.tokens {
		last := i == len(p.tokens)-1

		if token.isIndex {
			slice, ok := current.([]any)
			if !ok || token.index >= len(slice) {
				return fmt.Errorf("%w: %q", ErrPathConflict, p.raw)
			}
			if last {
				slice[token.index] = value
				return nil
			}
			current = slice[token.index]
			continue
		}

		object, ok := current.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q", ErrPathConflict, p.raw)
		}
		if last {
			object[token.name] = value
			return nil
		}

		child, exists := object[token.name]
		if !exists || child == nil {
			if p.tokens[i+1].isIndex {
				return fmt.Errorf("%w: %q", ErrPathConflict, p.raw)
			}
			next := make(map[string]any)
			object[token.name] = next
			current = next
			continue
		}
		current = child
	}
	return nil
}
