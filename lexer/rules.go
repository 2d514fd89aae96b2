package lexer

import (
	"fmt"
	"regexp"
)

// Rule pairs a pattern with the category of the tokens it produces.
// Patterns are implicitly anchored at the cursor and compiled with
// dot-matches-newline and leftmost-longest semantics.
type Rule struct {
	Category Category
	Pattern  string
}

// CRules returns the rule definitions for C-like source code in priority
// order. Priority only breaks ties between matches of equal length.
func CRules() []Rule {
	return []Rule{
		// comments
		{BlockComment, `/\*(?:[^*]|\*+[^*/])*\*+/`},
		{LineComment, `//(?:[^\n\\]*\\\r?\n)*[^\n]*\n?`},
		// quotes
		{String, `"(?:[^"\\]|\\.)*"`},
		{Char, `'(?:\\(?:x[0-9A-Fa-f]+|[0-7]{1,3}|[^\n])|[^'\\\n])'`},
		// preprocessor
		{Preprocessor, `#\S*`},
		{IncludePath, `<[A-Za-z0-9_./+-]+>`},
		// parens
		{Bracket, `[()\[\]{}]`},
		// operators
		{Operator, `->|<<=?|>>=?|\|\||&&|--|\+\+|[-+*|&%/=!<>^]=`},
		{Punctuation, `[-<>~!%^&*/+=?|.,:;]`},
		// identifier
		{Ident, `[_A-Za-z][_A-Za-z0-9]*`},
		// constants
		{Number, `0[xX][0-9A-Fa-f]+[uUlL]*|[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?[uUlLfF]*`},
		// whitespace
		{Whitespace, `[\t\n\v\f\r ]+`},
	}
}

// RuleSet is a compiled, immutable list of rules. It is safe for
// concurrent use by any number of lexers.
type RuleSet struct {
	rules []compiledRule
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// NewRuleSet compiles rules in the given priority order.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule set is empty")
	}

	rs := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		re, err := regexp.Compile(`^(?s:` + r.Pattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Category, err)
		}
		re.Longest()
		rs.rules = append(rs.rules, compiledRule{Rule: r, re: re})
	}

	return rs, nil
}

// DefaultRules compiles CRules. It panics if the built-in patterns fail to
// compile, like regexp.MustCompile.
func DefaultRules() *RuleSet {
	rs, err := NewRuleSet(CRules())
	if err != nil {
		panic(err)
	}
	return rs
}

// Rules returns a copy of the rule definitions.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.Rule
	}
	return out
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// longest returns the length and category of the longest rule match at the
// start of text. An earlier rule wins a length tie. A zero length means no
// rule matched.
func (rs *RuleSet) longest(text string) (int, Category) {
	length, category := 0, Unknown
	for _, r := range rs.rules {
		loc := r.re.FindStringIndex(text)
		if loc == nil || loc[1] <= length {
			continue
		}
		length, category = loc[1], r.Category
	}
	return length, category
}
