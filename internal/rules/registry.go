// Package rules loads declarative rulesets and resolves each rule to a
// typed predicate at load time. Unresolvable references fail the whole
// load: a half-loaded ruleset gives false assurance.
package rules

import (
	"fmt"
	"os"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/meshworks/assetgate/internal/scene"
	"github.com/meshworks/assetgate/pkg/models"
)

// Finding is one predicate hit against one target. The rule's metadata
// turns findings into violations.
type Finding struct {
	// TargetID is the scene object (or "scene") the finding is against.
	TargetID string
	// Message describes the failure for humans.
	Message string
}

// Predicate inspects a read-only scene view and reports findings for the
// given targets. Predicates must not mutate the scene.
type Predicate func(view scene.View, targets []string) []Finding

// PredicateFactory builds a predicate from rule parameters. Factories run
// at load time so malformed parameters reject the load, not the run.
type PredicateFactory func(params Params) (Predicate, error)

// ConfigError reports a malformed ruleset. It is fatal: nothing touches
// the scene after a ConfigError.
type ConfigError struct {
	// RuleID is the offending rule, empty for file-level problems.
	RuleID string
	// Reason describes what was wrong.
	Reason string
}

func (e *ConfigError) Error() string {
	if e.RuleID == "" {
		return "ruleset config: " + e.Reason
	}
	return fmt.Sprintf("ruleset config: rule %q: %s", e.RuleID, e.Reason)
}

// RuleSpec is one rule descriptor as written in the ruleset file.
type RuleSpec struct {
	// ID uniquely identifies the rule within the ruleset.
	ID string `yaml:"id"`
	// Category is the scene aspect the rule inspects.
	Category models.Category `yaml:"category"`
	// Severity is the severity of violations the rule produces.
	Severity models.Severity `yaml:"severity"`
	// Enabled toggles the rule; nil means enabled.
	Enabled *bool `yaml:"enabled"`
	// Check names the predicate implementation to resolve.
	Check string `yaml:"check"`
	// Fix optionally names the repair action for violations of this rule.
	Fix models.FixCategory `yaml:"fix"`
	// Params carries predicate-specific tuning values.
	Params Params `yaml:"params"`
}

// Rule is a loaded rule: spec metadata plus its resolved predicate.
type Rule struct {
	// ID uniquely identifies the rule.
	ID string
	// Category is the scene aspect the rule inspects.
	Category models.Category
	// Severity is the severity of violations the rule produces.
	Severity models.Severity
	// Fix names the repair action, empty when the rule is not auto-fixable.
	Fix models.FixCategory
	// Params carries the rule's tuning values.
	Params Params

	predicate Predicate
	enabled   bool
}

// Evaluate runs the rule's predicate and stamps findings into violations.
func (r *Rule) Evaluate(view scene.View, targets []string) []models.Violation {
	findings := r.predicate(view, targets)

	violations := make([]models.Violation, 0, len(findings))
	for _, f := range findings {
		violations = append(violations, models.Violation{
			RuleID:      r.ID,
			TargetID:    f.TargetID,
			Category:    r.Category,
			Severity:    r.Severity,
			Message:     f.Message,
			Fixable:     r.Fix != "",
			FixCategory: r.Fix,
		})
	}
	return violations
}

// rulesetFile is the top-level ruleset document.
type rulesetFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSet holds loaded rules in file order. Rules are read-only after
// load except for the enabled flag; a RuleSet may be shared across
// sessions on different scenes.
type RuleSet struct {
	mu    sync.RWMutex
	rules []*Rule
	byID  map[string]*Rule
}

// Registry resolves predicate names to implementations. The default
// registry carries the builtin catalog; tests register their own.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]PredicateFactory
}

// NewRegistry creates an empty predicate registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]PredicateFactory)}
}

// Register adds a predicate factory under the given check name.
func (reg *Registry) Register(name string, factory PredicateFactory) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.factories[name] = factory
}

// lookup resolves a check name.
func (reg *Registry) lookup(name string) (PredicateFactory, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	f, ok := reg.factories[name]
	return f, ok
}

// LoadFile reads and validates a ruleset file.
func (reg *Registry) LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("read %s: %v", path, err)}
	}
	return reg.Load(data)
}

// Load parses and validates a ruleset document. Any malformed rule fails
// the whole load.
func (reg *Registry) Load(data []byte) (*RuleSet, error) {
	var file rulesetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("parse yaml: %v", err)}
	}
	if len(file.Rules) == 0 {
		return nil, &ConfigError{Reason: "ruleset contains no rules"}
	}

	rs := &RuleSet{byID: make(map[string]*Rule, len(file.Rules))}
	for _, spec := range file.Rules {
		rule, err := reg.buildRule(spec)
		if err != nil {
			return nil, err
		}
		if _, dup := rs.byID[rule.ID]; dup {
			return nil, &ConfigError{RuleID: rule.ID, Reason: "duplicate rule id"}
		}
		rs.rules = append(rs.rules, rule)
		rs.byID[rule.ID] = rule
	}
	return rs, nil
}

// buildRule validates one spec and resolves its predicate.
func (reg *Registry) buildRule(spec RuleSpec) (*Rule, error) {
	if spec.ID == "" {
		return nil, &ConfigError{Reason: "rule with empty id"}
	}
	if !spec.Category.Valid() {
		return nil, &ConfigError{RuleID: spec.ID, Reason: fmt.Sprintf("unknown category %q", spec.Category)}
	}
	if !spec.Severity.Valid() {
		return nil, &ConfigError{RuleID: spec.ID, Reason: fmt.Sprintf("unknown severity %q", spec.Severity)}
	}
	if spec.Fix != "" && !spec.Fix.Valid() {
		return nil, &ConfigError{RuleID: spec.ID, Reason: fmt.Sprintf("unknown fix %q", spec.Fix)}
	}

	factory, ok := reg.lookup(spec.Check)
	if !ok {
		return nil, &ConfigError{RuleID: spec.ID, Reason: fmt.Sprintf("unresolvable check %q", spec.Check)}
	}
	predicate, err := factory(spec.Params)
	if err != nil {
		return nil, &ConfigError{RuleID: spec.ID, Reason: fmt.Sprintf("invalid params: %v", err)}
	}

	enabled := true
	if spec.Enabled != nil {
		enabled = *spec.Enabled
	}

	return &Rule{
		ID:        spec.ID,
		Category:  spec.Category,
		Severity:  spec.Severity,
		Fix:       spec.Fix,
		Params:    spec.Params,
		predicate: predicate,
		enabled:   enabled,
	}, nil
}

// EnabledRules returns the enabled rules in file order.
func (rs *RuleSet) EnabledRules() []*Rule {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	var out []*Rule
	for _, r := range rs.rules {
		if r.enabled {
			out = append(out, r)
		}
	}
	return out
}

// Rules returns all rules in file order.
func (rs *RuleSet) Rules() []*Rule {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return append([]*Rule(nil), rs.rules...)
}

// Enabled reports whether the rule with the given id is enabled.
func (rs *RuleSet) Enabled(id string) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	r, ok := rs.byID[id]
	return ok && r.enabled
}

// Toggle enables or disables a rule by id.
func (rs *RuleSet) Toggle(id string, enabled bool) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	r, ok := rs.byID[id]
	if !ok {
		return fmt.Errorf("toggle: unknown rule %q", id)
	}
	r.enabled = enabled
	return nil
}
