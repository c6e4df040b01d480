package policyopa

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"voteaudit/internal/domain"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

const resultQuery = "data.voteaudit.policy.result"

// Engine decides whether a poll verdict is acceptable under a Rego bundle.
// The bundle is compiled once; Evaluate is safe for concurrent use.
type Engine struct {
	prepared   rego.PreparedEvalQuery
	bundleHash string
}

// NewEngineFromBundlePath compiles the .rego files and data.json under
// bundlePath against the pure builtin allowlist.
func NewEngineFromBundlePath(ctx context.Context, bundlePath string) (*Engine, error) {
	hash, err := ComputeBundleHashFromPath(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("hash policy bundle: %w", err)
	}

	caps := ast.CapabilitiesForThisVersion()
	caps.Builtins = filterBuiltins(caps.Builtins)
	compiler := ast.NewCompiler().WithCapabilities(caps)

	prepared, err := rego.New(
		rego.Query(resultQuery),
		rego.Compiler(compiler),
		rego.Load([]string{bundlePath}, nil),
		rego.StrictBuiltinErrors(true),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile policy bundle %s: %w", bundlePath, err)
	}
	if err := checkBuiltins(compiler.Modules); err != nil {
		return nil, fmt.Errorf("policy bundle %s: %w", bundlePath, err)
	}

	return &Engine{prepared: prepared, bundleHash: hash}, nil
}

func (e *Engine) BundleHash() string {
	return e.bundleHash
}

// Evaluate runs the bundle for one poll verdict. A verdict is only allowed
// when the policy allows it and lists no denials.
func (e *Engine) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error) {
	if e == nil {
		return domain.PolicyEvaluation{}, errors.New("policy engine is nil")
	}
	if input.Reasons == nil {
		input.Reasons = []string{}
	}
	rs, err := e.prepared.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.PolicyEvaluation{}, fmt.Errorf("evaluate policy for poll %d: %w", input.PollID, err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return domain.PolicyEvaluation{}, fmt.Errorf("policy %s is undefined for poll %d", resultQuery, input.PollID)
	}
	result, err := resultFromValue(rs[0].Expressions[0].Value)
	if err != nil {
		return domain.PolicyEvaluation{}, err
	}
	return domain.PolicyEvaluation{BundleHash: e.bundleHash, Result: result}, nil
}

// resultFromValue reads {allow, deny} out of the evaluated document.
func resultFromValue(value any) (domain.PolicyResult, error) {
	doc, ok := value.(map[string]any)
	if !ok {
		return domain.PolicyResult{}, fmt.Errorf("policy result is %T, want object", value)
	}
	allow, ok := doc["allow"].(bool)
	if !ok {
		return domain.PolicyResult{}, errors.New("policy result has no boolean allow")
	}

	var denies []domain.PolicyDeny
	if raw, present := doc["deny"]; present {
		items, ok := raw.([]any)
		if !ok {
			return domain.PolicyResult{}, fmt.Errorf("policy deny is %T, want array", raw)
		}
		seen := make(map[domain.PolicyDeny]struct{}, len(items))
		for _, item := range items {
			deny, err := denyFromValue(item)
			if err != nil {
				return domain.PolicyResult{}, err
			}
			if _, dup := seen[deny]; dup {
				continue
			}
			seen[deny] = struct{}{}
			denies = append(denies, deny)
		}
	}
	sort.Slice(denies, func(i, j int) bool {
		if denies[i].Code != denies[j].Code {
			return denies[i].Code < denies[j].Code
		}
		return denies[i].Message < denies[j].Message
	})
	return domain.PolicyResult{Allow: allow && len(denies) == 0, Deny: denies}, nil
}

func denyFromValue(item any) (domain.PolicyDeny, error) {
	switch v := item.(type) {
	case string:
		return domain.PolicyDeny{Code: v}, nil
	case map[string]any:
		code, _ := v["code"].(string)
		if code == "" {
			return domain.PolicyDeny{}, errors.New("policy deny entry without code")
		}
		message, _ := v["message"].(string)
		return domain.PolicyDeny{Code: code, Message: message}, nil
	default:
		return domain.PolicyDeny{}, fmt.Errorf("policy deny entry is %T", item)
	}
}
