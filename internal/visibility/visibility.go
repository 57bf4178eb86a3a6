// Package visibility decides whether a question is currently applicable given
// its conditional rules and the answers collected so far. All functions are
// pure and never panic on missing or mistyped answers.
package visibility

import (
	"fmt"
	"strings"

	"github.com/dshills/esgcheck/internal/schema"
)

// Composition selects how multiple rules on one question combine.
type Composition string

const (
	// ComposeAll requires every rule to pass (logical AND). This is the default.
	ComposeAll Composition = "all"
	// ComposeAny requires at least one rule to pass (logical OR).
	ComposeAny Composition = "any"
)

// ParseComposition converts a string to a Composition constant. The empty
// string maps to ComposeAll.
func ParseComposition(s string) (Composition, error) {
	switch Composition(strings.ToLower(strings.TrimSpace(s))) {
	case "", ComposeAll:
		return ComposeAll, nil
	case ComposeAny:
		return ComposeAny, nil
	}
	return "", fmt.Errorf("visibility: unknown rule composition %q (want all or any)", s)
}

// ShouldShowQuestion reports whether a question with the given rules is
// visible, composing rules with ComposeAll.
func ShouldShowQuestion(rules []schema.ConditionalRule, answers schema.Answers) bool {
	return ShouldShow(rules, answers, ComposeAll)
}

// ShouldShow reports whether a question with the given rules is visible under
// the composition policy. A question without rules is always visible.
func ShouldShow(rules []schema.ConditionalRule, answers schema.Answers, mode Composition) bool {
	if len(rules) == 0 {
		return true
	}
	return compose(len(rules), mode, func(i int) bool {
		return RulePasses(rules[i], answers)
	})
}

// compose folds n rule outcomes under mode.
func compose(n int, mode Composition, passes func(i int) bool) bool {
	if mode == ComposeAny {
		for i := 0; i < n; i++ {
			if passes(i) {
				return true
			}
		}
		return false
	}
	for i := 0; i < n; i++ {
		if !passes(i) {
			return false
		}
	}
	return true
}

// RulePasses reports whether the rule's comparison outcome equals its
// ShowWhen expectation.
func RulePasses(rule schema.ConditionalRule, answers schema.Answers) bool {
	return EvaluateRule(rule, answers) == rule.ShowWhen
}

// EvaluateRule returns the raw comparison outcome of a rule against the
// answer to its dependency question.
//
// A missing (or empty) dependency answer makes is_answered false,
// is_not_answered true and every value comparison false, including the
// negated operators: the condition cannot be established without an answer.
func EvaluateRule(rule schema.ConditionalRule, answers schema.Answers) bool {
	ans, ok := answers[rule.DependsOnQuestionID]
	answered := ok && !ans.Value.IsEmpty()

	switch rule.Operator {
	case schema.OpIsAnswered:
		return answered
	case schema.OpIsNotAnswered:
		return !answered
	}
	if !answered || rule.Value == nil {
		return false
	}

	got, want := ans.Value, *rule.Value
	switch rule.Operator {
	case schema.OpEquals:
		return equals(got, want)
	case schema.OpNotEquals:
		return !equals(got, want)
	case schema.OpContains:
		return contains(got, want)
	case schema.OpNotContains:
		return !contains(got, want)
	case schema.OpGreaterThan:
		c, ok := compare(got, want)
		return ok && c > 0
	case schema.OpLessThan:
		c, ok := compare(got, want)
		return ok && c < 0
	}
	return false
}

// equals compares values of compatible kinds. A string-array answer equals a
// rule value when both hold the same set of elements; against a single string
// it equals only a one-element array.
func equals(got, want schema.AnswerValue) bool {
	switch got.Kind {
	case schema.KindBool:
		if want.Kind == schema.KindBool {
			return got.Bool == want.Bool
		}
		return want.Kind == schema.KindString && got.String() == strings.ToLower(strings.TrimSpace(want.Str))
	case schema.KindNumber:
		if n, ok := number(want); ok {
			return got.Number == n
		}
		return false
	case schema.KindStrings:
		wantSet := want.Strings
		if want.Kind == schema.KindString {
			wantSet = []string{want.Str}
		} else if want.Kind != schema.KindStrings {
			return false
		}
		return sameSet(got.Strings, wantSet)
	case schema.KindString, schema.KindDate:
		if t1, ok := got.AsTime(); ok {
			if t2, ok := want.AsTime(); ok {
				return t1.Equal(t2)
			}
		}
		return got.Str == want.String()
	}
	return false
}

// contains is array membership for string-array answers and substring
// containment for strings.
func contains(got, want schema.AnswerValue) bool {
	switch got.Kind {
	case schema.KindStrings:
		needles := want.Strings
		if want.Kind != schema.KindStrings {
			needles = []string{want.String()}
		}
		if len(needles) == 0 {
			return false
		}
		for _, n := range needles {
			if !has(got.Strings, n) {
				return false
			}
		}
		return true
	case schema.KindString:
		needle := want.String()
		return needle != "" && strings.Contains(got.Str, needle)
	}
	return false
}

// compare orders numbers numerically and dates chronologically.
func compare(got, want schema.AnswerValue) (int, bool) {
	if a, ok := number(got); ok {
		if b, ok := number(want); ok {
			switch {
			case a < b:
				return -1, true
			case a > b:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	t1, ok1 := got.AsTime()
	t2, ok2 := want.AsTime()
	if !ok1 || !ok2 {
		return 0, false
	}
	return t1.Compare(t2), true
}

func number(v schema.AnswerValue) (float64, bool) {
	if v.Kind == schema.KindNumber {
		return v.Number, true
	}
	return 0, false
}

func has(set []string, s string) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	for _, x := range a {
		if !has(b, x) {
			return false
		}
	}
	for _, x := range b {
		if !has(a, x) {
			return false
		}
	}
	return true
}
