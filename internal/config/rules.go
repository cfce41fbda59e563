package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/reconcile"
)

// RulesFile is the YAML form of extra classifier rules:
//
//	fallback: programs
//	rules:
//	  - group: people
//	    names: [Contractors]
//	    keywords: [intern]
type RulesFile struct {
	Fallback string     `yaml:"fallback,omitempty"`
	Rules    []RuleSpec `yaml:"rules"`
}

// RuleSpec is one ordered rule. A spend type matches when its name equals
// one of Names or contains one of Keywords.
type RuleSpec struct {
	Group    string   `yaml:"group"`
	Names    []string `yaml:"names,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// LoadRules reads a rules file.
func LoadRules(path string) (RulesFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		return RulesFile{}, fmt.Errorf("reading rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates rules YAML.
func ParseRules(data []byte) (RulesFile, error) {
	var rf RulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return RulesFile{}, fmt.Errorf("parsing rules: %w", err)
	}
	if rf.Fallback != "" {
		if _, ok := model.ParseGroup(rf.Fallback); !ok {
			return RulesFile{}, fmt.Errorf("rules: unknown fallback group %q", rf.Fallback)
		}
	}
	for i, r := range rf.Rules {
		if _, ok := model.ParseGroup(r.Group); !ok {
			return RulesFile{}, fmt.Errorf("rules[%d]: unknown group %q", i, r.Group)
		}
		if len(r.Names) == 0 && len(r.Keywords) == 0 {
			return RulesFile{}, fmt.Errorf("rules[%d]: needs names or keywords", i)
		}
	}
	return rf, nil
}

// compile turns the file into classifier rules, names before keywords
// within each entry.
func (rf RulesFile) compile() []reconcile.Rule {
	var rules []reconcile.Rule
	for _, r := range rf.Rules {
		g, _ := model.ParseGroup(r.Group)
		if len(r.Names) > 0 {
			rules = append(rules, reconcile.NameListRule{Group: g, Names: r.Names})
		}
		if len(r.Keywords) > 0 {
			rules = append(rules, reconcile.KeywordRule{Group: g, Keywords: r.Keywords})
		}
	}
	return rules
}

// BuildClassifier assembles the spend-type classifier: rules from the rules
// file first, then the name and keyword lists of cfg, then the built-in
// rules. Without any customization it is the default classifier.
func BuildClassifier(cfg ClassifierConfig) (*reconcile.Classifier, error) {
	fallback := model.GroupPrograms
	var rules []reconcile.Rule

	if cfg.RulesFile != "" {
		rf, err := LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		if g, ok := model.ParseGroup(rf.Fallback); ok {
			fallback = g
		}
		rules = append(rules, rf.compile()...)
	}

	if len(cfg.PeopleNames) > 0 {
		rules = append(rules, reconcile.NameListRule{Group: model.GroupPeople, Names: cfg.PeopleNames})
	}
	if len(cfg.ProgramNames) > 0 {
		rules = append(rules, reconcile.NameListRule{Group: model.GroupPrograms, Names: cfg.ProgramNames})
	}
	if len(cfg.PeopleKeywords) > 0 {
		rules = append(rules, reconcile.KeywordRule{Group: model.GroupPeople, Keywords: cfg.PeopleKeywords})
	}

	rules = append(rules, reconcile.DefaultRules()...)
	return reconcile.NewClassifier(fallback, rules...), nil
}
