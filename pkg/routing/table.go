package routing

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
	MethodAny:          true,
}

// Table is an immutable set of rules. Exact rules are always consulted
// before prefix rules; within each class rules are tried in order.
type Table struct {
	exact  []Rule
	prefix []Rule
}

// NewTable validates rules and builds a table preserving declared order.
func NewTable(rules ...Rule) (*Table, error) {
	t := &Table{}
	seen := make(map[string]bool, len(rules))

	for _, rule := range rules {
		rule.Method = strings.ToUpper(rule.Method)
		if rule.Mode == "" {
			rule.Mode = ModeExact
		}
		if err := validateRule(rule); err != nil {
			return nil, err
		}

		if seen[rule.key()] {
			return nil, &RuleError{
				Rule:   rule.Name,
				Reason: fmt.Sprintf("duplicates another %s rule for %s %s", rule.Mode, rule.Method, rule.Pattern),
				Err:    ErrDuplicateRule,
			}
		}
		seen[rule.key()] = true

		if rule.Mode == ModeExact {
			t.exact = append(t.exact, rule)
		} else {
			t.prefix = append(t.prefix, rule)
		}
	}

	return t, nil
}

func validateRule(rule Rule) error {
	invalid := func(reason string) error {
		return &RuleError{Rule: rule.Name, Reason: reason, Err: ErrInvalidRule}
	}

	if rule.Mode != ModeExact && rule.Mode != ModePrefix {
		return invalid(fmt.Sprintf("unknown mode %q", rule.Mode))
	}
	if !knownMethods[rule.Method] {
		return invalid(fmt.Sprintf("unknown method %q", rule.Method))
	}
	if !strings.HasPrefix(rule.Pattern, "/") {
		return invalid("pattern must start with /")
	}
	if rule.Pattern == "/" {
		return invalid("pattern / is reserved for the gateway summary")
	}
	if rule.Timeout < 0 {
		return invalid("timeout must not be negative")
	}
	return nil
}

// Merge returns a table containing t's rules followed by other's. Prefix
// rules of the result are ordered by descending pattern length so that
// the most specific prefix wins; the sort is stable.
func (t *Table) Merge(other *Table) (*Table, error) {
	rules := append(t.Rules(), other.Rules()...)
	merged, err := NewTable(rules...)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(merged.prefix, func(i, j int) bool {
		return len(merged.prefix[i].Pattern) > len(merged.prefix[j].Pattern)
	})
	return merged, nil
}

// Match returns the first rule matching method and path. The result
// depends only on the arguments and the table.
func (t *Table) Match(method, path string) (Rule, error) {
	for _, rule := range t.exact {
		if rule.matchesMethod(method) && rule.matchesPath(path) {
			return rule, nil
		}
	}
	for _, rule := range t.prefix {
		if rule.matchesMethod(method) && rule.matchesPath(path) {
			return rule, nil
		}
	}
	return Rule{}, &RouteNotFoundError{Method: method, Path: path}
}

// Rules returns the rules in evaluation order.
func (t *Table) Rules() []Rule {
	rules := make([]Rule, 0, len(t.exact)+len(t.prefix))
	rules = append(rules, t.exact...)
	return append(rules, t.prefix...)
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.exact) + len(t.prefix)
}
