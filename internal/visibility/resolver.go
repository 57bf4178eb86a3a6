package visibility

import "github.com/dshills/esgcheck/internal/schema"

// Resolver decides applicability and visibility for every question of one
// template against one company and one answer set.
//
// A rule whose dependency question is itself hidden or not applicable sees
// that dependency as unanswered. A rule whose dependency can reach the
// question back through other rules is part of a cycle and is treated as not
// satisfied, so outcomes never depend on evaluation order.
//
// A Resolver memoises its results and is not safe for concurrent use; create
// one per assessment.
type Resolver struct {
	questions map[string]schema.Question
	profile   schema.CompanyProfile
	answers   schema.Answers
	mode      Composition

	visible map[string]bool
	reach   map[[2]string]bool
}

// NewResolver indexes the template's questions.
func NewResolver(t schema.QuestionnaireTemplate, profile schema.CompanyProfile, answers schema.Answers, mode Composition) *Resolver {
	qs := make(map[string]schema.Question)
	for _, q := range t.Questions() {
		qs[q.ID] = q
	}
	if answers == nil {
		answers = schema.Answers{}
	}
	return &Resolver{
		questions: qs,
		profile:   profile,
		answers:   answers,
		mode:      mode,
		visible:   make(map[string]bool),
		reach:     make(map[[2]string]bool),
	}
}

// Applicable reports whether the question is in the template, applies to the
// company and is currently visible.
func (r *Resolver) Applicable(id string) bool {
	if v, ok := r.visible[id]; ok {
		return v
	}
	q, ok := r.questions[id]
	if !ok {
		return false
	}
	v := q.AppliesTo(r.profile) && r.rulesPass(q)
	r.visible[id] = v
	return v
}

// Answers returns the effective answer set: answers to questions that are
// not applicable are removed.
func (r *Resolver) Answers() schema.Answers {
	out := make(schema.Answers, len(r.answers))
	for id, a := range r.answers {
		if _, inTemplate := r.questions[id]; inTemplate && !r.Applicable(id) {
			continue
		}
		out[id] = a
	}
	return out
}

func (r *Resolver) rulesPass(q schema.Question) bool {
	if len(q.ConditionalRules) == 0 {
		return true
	}
	return compose(len(q.ConditionalRules), r.mode, func(i int) bool {
		rule := q.ConditionalRules[i]
		dep := rule.DependsOnQuestionID
		if dep == q.ID || r.reaches(dep, q.ID) {
			return false
		}
		view := r.answers
		if _, inTemplate := r.questions[dep]; inTemplate && !r.Applicable(dep) {
			view = without(r.answers, dep)
		}
		return RulePasses(rule, view)
	})
}

// reaches reports whether from depends, directly or transitively, on to.
func (r *Resolver) reaches(from, to string) bool {
	key := [2]string{from, to}
	if v, ok := r.reach[key]; ok {
		return v
	}
	seen := map[string]bool{from: true}
	stack := []string{from}
	found := false
	for len(stack) > 0 && !found {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, rule := range r.questions[cur].ConditionalRules {
			next := rule.DependsOnQuestionID
			if next == to {
				found = true
				break
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	r.reach[key] = found
	return found
}

func without(a schema.Answers, id string) schema.Answers {
	out := make(schema.Answers, len(a))
	for k, v := range a {
		if k != id {
			out[k] = v
		}
	}
	return out
}
