package carrier

import "strings"

// Rule maps a code to a carrier. A rule matches when the code starts with any
// of Prefixes, or, for a rule without prefixes, when the code is exactly
// Digits ASCII digits long.
type Rule struct {
	Carrier  ID       `yaml:"carrier"`
	Prefixes []string `yaml:"prefixes,omitempty"`
	Digits   int      `yaml:"digits,omitempty"`
}

// Match reports whether code satisfies the rule.
func (r Rule) Match(code string) bool {
	for _, p := range r.Prefixes {
		if p != "" && strings.HasPrefix(code, p) {
			return true
		}
	}
	if len(r.Prefixes) == 0 && r.Digits > 0 {
		return len(code) == r.Digits && allDigits(code)
	}
	return false
}

// DefaultRules returns the production rule list in evaluation order.
//
// Order is significant: prefixes overlap ("2400" vs. the 3-digit
// Servientrega prefixes), so new carriers must be inserted by precedence,
// never sorted.
func DefaultRules() []Rule {
	return []Rule{
		{Carrier: Envia, Prefixes: []string{"0240"}},
		{Carrier: Servientrega, Prefixes: []string{"219", "220", "221"}},
		{Carrier: Interrapidisimo, Prefixes: []string{"2400"}},
		{Carrier: Coordinadora, Prefixes: []string{"363"}},
		{Carrier: TCC, Prefixes: []string{"609"}},
		{Carrier: Domina, Prefixes: []string{"859"}},
	}
}

// MinutosRule is the optional fallback for bare 10-digit codes.
func MinutosRule() Rule {
	return Rule{Carrier: Minutos99, Digits: 10}
}

// Classifier evaluates an ordered rule list; the first match wins.
// A Classifier is immutable and safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// Option customizes a Classifier built with NewClassifier.
type Option func(*Classifier)

// WithMinutos appends the 10-digit 99MINUTOS rule after all prefix rules.
func WithMinutos() Option {
	return func(c *Classifier) { c.rules = append(c.rules, MinutosRule()) }
}

// WithRules replaces the rule list.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		c.rules = append([]Rule(nil), rules...)
	}
}

// NewClassifier returns a classifier over DefaultRules, adjusted by opts in
// the order given.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{rules: DefaultRules()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Rules returns a copy of the rule list in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the carrier of the first matching rule, or Unknown.
func (c *Classifier) Classify(code string) ID {
	if code == "" {
		return Unknown
	}
	for _, r := range c.rules {
		if r.Match(code) {
			return r.Carrier
		}
	}
	return Unknown
}

var defaultClassifier = NewClassifier()

// Classify classifies code with the default rule list (99MINUTOS disabled).
func Classify(code string) ID { return defaultClassifier.Classify(code) }

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
