package planner

import (
	"sort"
	"strings"

	"github.com/trezcool/revisa/core/user"
)

// SelectorLimits bounds a single day. A limit <= 0 means "no limit".
type SelectorLimits struct {
	MaxContinuous int
	MaxBack       int
	MaxPerSubject int
}

// TopicSelector picks the bounded subset of pending topics a student revises on one day.
// It is a pure function of its inputs: it never mutates the pools it is given.
type TopicSelector struct {
	limits SelectorLimits
}

func NewTopicSelector(limits SelectorLimits) TopicSelector {
	return TopicSelector{limits: limits}
}

// SelectDailyTopics returns the continuous & back revision topics to study on one day.
// Topics not selected (over capacity, irrelevant to usr) stay pending.
func (s TopicSelector) SelectDailyTopics(pendingContinuous, pendingBack []RevisionTopic, usr user.User) (dailyContinuous, dailyBack []RevisionTopic) {
	ci, bi := s.pick(pendingContinuous, pendingBack, usr)
	dailyContinuous = make([]RevisionTopic, 0, len(ci))
	for _, i := range ci {
		dailyContinuous = append(dailyContinuous, pendingContinuous[i].clone())
	}
	dailyBack = make([]RevisionTopic, 0, len(bi))
	for _, i := range bi {
		dailyBack = append(dailyBack, pendingBack[i].clone())
	}
	return dailyContinuous, dailyBack
}

// pick returns the indexes (into the given pools) of the selected topics, in priority order.
func (s TopicSelector) pick(continuous, back []RevisionTopic, usr user.User) (ci, bi []int) {
	perSubject := make(map[string]int)
	names := make(map[string]struct{})

	take := func(pool []RevisionTopic, order []int, max int) []int {
		picked := make([]int, 0)
		for _, i := range order {
			if max > 0 && len(picked) >= max {
				break
			}
			rt := pool[i]
			if !isRelevant(rt, usr) {
				continue
			}
			if _, dup := names[rt.Topic.key()]; dup {
				continue
			}
			subj := strings.ToLower(rt.Subject)
			if s.limits.MaxPerSubject > 0 && perSubject[subj] >= s.limits.MaxPerSubject {
				continue
			}
			perSubject[subj]++
			names[rt.Topic.key()] = struct{}{}
			picked = append(picked, i)
		}
		return picked
	}

	ci = take(continuous, continuousOrder(continuous), s.limits.MaxContinuous)
	bi = take(back, backOrder(back), s.limits.MaxBack)
	return ci, bi
}

func isRelevant(rt RevisionTopic, usr user.User) bool {
	if strings.TrimSpace(rt.Topic.Name) == "" {
		return false
	}
	if usr.Standard != 0 && rt.Standard != 0 && usr.Standard != rt.Standard {
		return false
	}
	return usr.StudiesSubject(rt.Subject)
}

// continuousOrder: least scheduled first, then oldest first.
func continuousOrder(pool []RevisionTopic) []int {
	order := indexes(len(pool))
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := pool[order[a]], pool[order[b]]
		if ta.Topic.PlannerFrequency != tb.Topic.PlannerFrequency {
			return ta.Topic.PlannerFrequency < tb.Topic.PlannerFrequency
		}
		return ta.CreatedAt.Before(tb.CreatedAt)
	})
	return order
}

// backOrder: weakest first, then least scheduled, then oldest.
func backOrder(pool []RevisionTopic) []int {
	order := indexes(len(pool))
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := pool[order[a]], pool[order[b]]
		if ta.Topic.OverallEfficiency != tb.Topic.OverallEfficiency {
			return ta.Topic.OverallEfficiency < tb.Topic.OverallEfficiency
		}
		if ta.Topic.PlannerFrequency != tb.Topic.PlannerFrequency {
			return ta.Topic.PlannerFrequency < tb.Topic.PlannerFrequency
		}
		return ta.CreatedAt.Before(tb.CreatedAt)
	})
	return order
}

func indexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// without returns pool minus the topics at the given indexes.
func without(pool []RevisionTopic, picked []int) []RevisionTopic {
	if len(picked) == 0 {
		return pool
	}
	skip := make(map[int]struct{}, len(picked))
	for _, i := range picked {
		skip[i] = struct{}{}
	}
	rest := make([]RevisionTopic, 0, len(pool)-len(picked))
	for i, rt := range pool {
		if _, ok := skip[i]; !ok {
			rest = append(rest, rt)
		}
	}
	return rest
}
