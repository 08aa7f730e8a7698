package domain

import (
	"fmt"
	"strings"
)

// PredicateKind discriminates the three shapes a condition, precondition or effect can take.
type PredicateKind int

const (
	// PredicateEquals holds when the key exists with exactly the given value.
	PredicateEquals PredicateKind = iota
	// PredicatePresent holds when the key exists with any value.
	PredicatePresent
	// PredicateAbsent holds when the key does not exist.
	PredicateAbsent
)

func (k PredicateKind) String() string {
	switch k {
	case PredicateEquals:
		return "equals"
	case PredicatePresent:
		return "present"
	case PredicateAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Predicate is a single key/value assertion evaluated against beliefs or a world state.
// The text form is "key=value", "key" or "!key".
type Predicate struct {
	Kind  PredicateKind
	Key   string
	Value string
}

// Equals builds a key=value predicate.
func Equals(key, value string) Predicate {
	return Predicate{Kind: PredicateEquals, Key: key, Value: value}
}

// Present builds a presence test.
func Present(key string) Predicate {
	return Predicate{Kind: PredicatePresent, Key: key}
}

// Absent builds an absence test.
func Absent(key string) Predicate {
	return Predicate{Kind: PredicateAbsent, Key: key}
}

// ParsePredicate reads the text form of a predicate. Surrounding whitespace around the
// key and value is ignored.
func ParsePredicate(s string) (Predicate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Predicate{}, fmt.Errorf("empty predicate")
	}

	if strings.HasPrefix(s, "!") {
		key := strings.TrimSpace(s[1:])
		if key == "" || strings.Contains(key, "=") {
			return Predicate{}, fmt.Errorf("invalid absence predicate %q", s)
		}
		return Absent(key), nil
	}

	if key, value, ok := strings.Cut(s, "="); ok {
		key = strings.TrimSpace(key)
		if key == "" {
			return Predicate{}, fmt.Errorf("predicate %q has no key", s)
		}
		return Equals(key, strings.TrimSpace(value)), nil
	}

	return Present(s), nil
}

// MustParsePredicate is ParsePredicate for literals known to be valid.
func MustParsePredicate(s string) Predicate {
	p, err := ParsePredicate(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePredicates parses every entry, reporting the first failure with its position.
func ParsePredicates(ss []string) ([]Predicate, error) {
	out := make([]Predicate, 0, len(ss))
	for i, s := range ss {
		p, err := ParsePredicate(s)
		if err != nil {
			return nil, fmt.Errorf("predicate %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (p Predicate) String() string {
	switch p.Kind {
	case PredicateEquals:
		return p.Key + "=" + p.Value
	case PredicateAbsent:
		return "!" + p.Key
	default:
		return p.Key
	}
}

// Eval reports whether the predicate holds given a lookup function.
func (p Predicate) Eval(lookup func(key string) (string, bool)) bool {
	v, ok := lookup(p.Key)
	switch p.Kind {
	case PredicateEquals:
		return ok && v == p.Value
	case PredicatePresent:
		return ok
	case PredicateAbsent:
		return !ok
	default:
		return false
	}
}

// PredicateStrings renders predicates in their text form.
func PredicateStrings(ps []Predicate) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
