package reconcile

import (
	"strings"

	"github.com/theirongolddev/budgetdash/internal/model"
)

// Rule is one step of the classifier. Match reports a group when the rule
// applies to the spend-type name and its optional category hint.
type Rule interface {
	Match(name, hint string) (model.Group, bool)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(name, hint string) (model.Group, bool)

// Match implements Rule.
func (f RuleFunc) Match(name, hint string) (model.Group, bool) { return f(name, hint) }

// NameListRule matches names equal (ignoring case) to one of Names.
type NameListRule struct {
	Group model.Group
	Names []string
}

// Match implements Rule.
func (r NameListRule) Match(name, _ string) (model.Group, bool) {
	name = strings.TrimSpace(name)
	for _, n := range r.Names {
		if strings.EqualFold(n, name) {
			return r.Group, true
		}
	}
	return "", false
}

// KeywordRule matches when the lowercased name or hint contains any keyword.
type KeywordRule struct {
	Group    model.Group
	Keywords []string
}

// Match implements Rule.
func (r KeywordRule) Match(name, hint string) (model.Group, bool) {
	name = strings.ToLower(name)
	hint = strings.ToLower(hint)
	for _, kw := range r.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(name, kw) || strings.Contains(hint, kw) {
			return r.Group, true
		}
	}
	return "", false
}

// PeopleKeywords are the substrings that mark a personnel cost.
var PeopleKeywords = []string{
	"salaries", "benefits", "claim", "levy", "uif", "gifts", "payroll", "hr", "compensation",
}

// Classifier assigns spend-type names to a group using an ordered rule list;
// the first matching rule wins and Fallback applies when none match.
type Classifier struct {
	rules    []Rule
	fallback model.Group
}

// NewClassifier builds a classifier. An invalid fallback becomes programs.
func NewClassifier(fallback model.Group, rules ...Rule) *Classifier {
	if !fallback.Valid() {
		fallback = model.GroupPrograms
	}
	return &Classifier{rules: append([]Rule(nil), rules...), fallback: fallback}
}

// DefaultRules returns the built-in rule order: known people names, known
// program names, then people keywords.
func DefaultRules() []Rule {
	return []Rule{
		NameListRule{Group: model.GroupPeople, Names: model.PeopleSpendTypes},
		NameListRule{Group: model.GroupPrograms, Names: model.ProgramSpendTypes},
		KeywordRule{Group: model.GroupPeople, Keywords: PeopleKeywords},
	}
}

// DefaultClassifier classifies with DefaultRules and falls back to programs.
func DefaultClassifier() *Classifier {
	return NewClassifier(model.GroupPrograms, DefaultRules()...)
}

// Rules returns a copy of the rule list.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Fallback is the group returned when no rule matches.
func (c *Classifier) Fallback() model.Group {
	return c.fallback
}

// Classify returns the group for name. It is total: rules that report an
// unknown group are ignored.
func (c *Classifier) Classify(name, hint string) model.Group {
	if c == nil {
		return DefaultClassifier().Classify(name, hint)
	}
	for _, r := range c.rules {
		if g, ok := r.Match(name, hint); ok && g.Valid() {
			return g
		}
	}
	return c.fallback
}
