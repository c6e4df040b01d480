package policyopa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/ast"
)

// Policies see only pure builtins: no clock, network or randomness.
var allowedBuiltins = map[string]struct{}{
	"abs":            {},
	"assign":         {},
	"ceil":           {},
	"concat":         {},
	"contains":       {},
	"count":          {},
	"div":            {},
	"endswith":       {},
	"eq":             {},
	"equal":          {},
	"floor":          {},
	"format_int":     {},
	"gt":             {},
	"gte":            {},
	"json.marshal":   {},
	"json.unmarshal": {},
	"lower":          {},
	"lt":             {},
	"lte":            {},
	"max":            {},
	"min":            {},
	"minus":          {},
	"mul":            {},
	"neq":            {},
	"object.get":     {},
	"plus":           {},
	"regex.match":    {},
	"round":          {},
	"sort":           {},
	"split":          {},
	"sprintf":        {},
	"startswith":     {},
	"substring":      {},
	"sum":            {},
	"trim":           {},
	"trim_space":     {},
	"upper":          {},
}

func filterBuiltins(builtins []*ast.Builtin) []*ast.Builtin {
	allowed := make([]*ast.Builtin, 0, len(builtins))
	for _, builtin := range builtins {
		if _, ok := allowedBuiltins[builtin.Name]; !ok {
			continue
		}
		allowed = append(allowed, builtin)
	}
	return allowed
}

// checkBuiltins rejects compiled modules that call a builtin outside the
// allowlist, in case capabilities filtering let one through.
func checkBuiltins(modules map[string]*ast.Module) error {
	var found []string
	seen := make(map[string]bool)
	for _, module := range modules {
		ast.WalkTerms(module, func(term *ast.Term) bool {
			call, ok := term.Value.(ast.Call)
			if !ok || len(call) == 0 || call[0] == nil {
				return false
			}
			name := call[0].Value.String()
			if _, builtin := ast.BuiltinMap[name]; !builtin {
				return false
			}
			if _, allowed := allowedBuiltins[name]; !allowed && !seen[name] {
				seen[name] = true
				found = append(found, name)
			}
			return false
		})
	}
	if len(found) == 0 {
		return nil
	}
	sort.Strings(found)
	return fmt.Errorf("forbidden builtins: %s", strings.Join(found, ", "))
}
