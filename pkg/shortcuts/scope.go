package shortcuts

import (
	"slices"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/models"
)

// Environment is what group scope rules are evaluated against.
type Environment struct {
	Frontmost string
	Running   []string
}

// scopeEnv is the variable set visible to `rule.when` expressions.
type scopeEnv struct {
	Frontmost string   `expr:"frontmost"`
	Running   []string `expr:"running"`
}

// ruleCache keeps compiled `when` programs across rebuilds.
type ruleCache struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
	failures map[string]error
}

func newRuleCache() *ruleCache {
	return &ruleCache{programs: make(map[string]*vm.Program), failures: make(map[string]error)}
}

// CompileRule checks that a `when` expression compiles to a boolean.
func CompileRule(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, expr.Env(scopeEnv{}), expr.AsBool())
	if err != nil {
		return nil, kferrors.Wrap(err, kferrors.ErrCodeConfigValidation, "invalid rule expression").WithDetail("when", src)
	}
	return program, nil
}

func (c *ruleCache) program(src string) (*vm.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[src]; ok {
		return p, nil
	}
	if err, ok := c.failures[src]; ok {
		return nil, err
	}
	p, err := CompileRule(src)
	if err != nil {
		c.failures[src] = err
		return nil, err
	}
	c.programs[src] = p
	return p, nil
}

// inScope reports whether a group's rule admits env. A group without a rule
// is always in scope.
func (c *ruleCache) inScope(rule *models.Rule, env Environment) (bool, error) {
	if rule == nil {
		return true, nil
	}
	if len(rule.BundleIdentifiers) > 0 && !slices.Contains(rule.BundleIdentifiers, env.Frontmost) {
		return false, nil
	}
	if rule.When == "" {
		return true, nil
	}
	program, err := c.program(rule.When)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, scopeEnv{Frontmost: env.Frontmost, Running: env.Running})
	if err != nil {
		return false, kferrors.Wrap(err, kferrors.ErrCodeConfigValidation, "rule evaluation failed").WithDetail("when", rule.When)
	}
	ok, _ := out.(bool)
	return ok, nil
}
