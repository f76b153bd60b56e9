package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/revisa/core/user"
)

var t0 = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

func topic(name, subject string, opts ...func(*RevisionTopic)) RevisionTopic {
	rt := RevisionTopic{
		ID:        name,
		Tag:       TagContinuousRevision,
		Topic:     Topic{Name: name},
		Chapter:   Chapter{Name: name + " chapter"},
		Subject:   subject,
		CreatedAt: t0,
	}
	for _, opt := range opts {
		opt(&rt)
	}
	return rt
}

func frequency(n int) func(*RevisionTopic) {
	return func(rt *RevisionTopic) { rt.Topic.PlannerFrequency = n }
}

func efficiency(e float64) func(*RevisionTopic) {
	return func(rt *RevisionTopic) { rt.Topic.OverallEfficiency = e }
}

func createdAt(t time.Time) func(*RevisionTopic) {
	return func(rt *RevisionTopic) { rt.CreatedAt = t }
}

func standard(s int) func(*RevisionTopic) {
	return func(rt *RevisionTopic) { rt.Standard = s }
}

func names(topics []RevisionTopic) []string {
	out := make([]string, 0, len(topics))
	for _, rt := range topics {
		out = append(out, rt.Topic.Name)
	}
	return out
}

func TestTopicSelector_SelectDailyTopics(t *testing.T) {
	student := user.User{ID: "s1", Standard: 12, Subjects: []string{"physics", "chemistry", "maths"}}
	limits := SelectorLimits{MaxContinuous: 3, MaxBack: 2, MaxPerSubject: 2}

	tests := []struct {
		name           string
		limits         SelectorLimits
		continuous     []RevisionTopic
		back           []RevisionTopic
		usr            user.User
		wantContinuous []string
		wantBack       []string
	}{
		{
			name:           "empty pools",
			limits:         limits,
			usr:            student,
			wantContinuous: []string{},
			wantBack:       []string{},
		},
		{
			name:   "continuous cap",
			limits: limits,
			continuous: []RevisionTopic{
				topic("Optics", "physics"), topic("Acids", "chemistry"), topic("Limits", "maths"), topic("Bonds", "chemistry"),
			},
			usr:            student,
			wantContinuous: []string{"Optics", "Acids", "Limits"},
			wantBack:       []string{},
		},
		{
			name:   "per subject cap spans both pools",
			limits: limits,
			continuous: []RevisionTopic{
				topic("Optics", "physics"), topic("Waves", "physics"), topic("Heat", "physics"),
			},
			back:           []RevisionTopic{topic("Gravitation", "physics"), topic("Acids", "chemistry")},
			usr:            student,
			wantContinuous: []string{"Optics", "Waves"},
			wantBack:       []string{"Acids"},
		},
		{
			name:   "least scheduled then oldest first",
			limits: SelectorLimits{MaxContinuous: 2},
			continuous: []RevisionTopic{
				topic("Optics", "physics", frequency(2)),
				topic("Waves", "physics", frequency(0), createdAt(t0.Add(time.Hour))),
				topic("Heat", "physics", frequency(0)),
			},
			usr:            student,
			wantContinuous: []string{"Heat", "Waves"},
			wantBack:       []string{},
		},
		{
			name:   "weakest back topics first",
			limits: SelectorLimits{MaxBack: 2},
			back: []RevisionTopic{
				topic("Optics", "physics", efficiency(80)),
				topic("Waves", "physics", efficiency(20)),
				topic("Heat", "physics", efficiency(20), frequency(1)),
				topic("Acids", "chemistry", efficiency(50)),
			},
			usr:            student,
			wantContinuous: []string{},
			wantBack:       []string{"Waves", "Heat"},
		},
		{
			name:   "irrelevant topics stay pending",
			limits: limits,
			continuous: []RevisionTopic{
				topic("Cells", "biology"), topic("Optics", "physics", standard(11)), topic("Acids", "chemistry", standard(12)), topic("  ", "maths"),
			},
			usr:            student,
			wantContinuous: []string{"Acids"},
			wantBack:       []string{},
		},
		{
			name:   "no subjects means every subject",
			limits: limits,
			continuous: []RevisionTopic{
				topic("Cells", "biology"),
			},
			usr:            user.User{ID: "s2"},
			wantContinuous: []string{"Cells"},
			wantBack:       []string{},
		},
		{
			name:           "case-insensitive names are unique within a day",
			limits:         limits,
			continuous:     []RevisionTopic{topic("Thermodynamics", "physics")},
			back:           []RevisionTopic{topic("thermodynamics ", "physics"), topic("Acids", "chemistry")},
			usr:            student,
			wantContinuous: []string{"Thermodynamics"},
			wantBack:       []string{"Acids"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTopicSelector(tt.limits)
			gotC, gotB := s.SelectDailyTopics(tt.continuous, tt.back, tt.usr)
			assert.Equal(t, tt.wantContinuous, names(gotC))
			assert.Equal(t, tt.wantBack, names(gotB))
		})
	}
}

func TestTopicSelector_pure(t *testing.T) {
	pool := []RevisionTopic{topic("Optics", "physics"), topic("Waves", "physics")}
	pool[0].Topic.StudiedAt = []StudyEvent{{Date: t0}}

	s := NewTopicSelector(SelectorLimits{MaxContinuous: 3})
	gotC, _ := s.SelectDailyTopics(pool, nil, user.User{})
	gotC[0].Topic.StudiedAt[0].Efficiency = 99
	gotC[0].Topic.PlannerFrequency = 5

	assert.Equal(t, 0.0, pool[0].Topic.StudiedAt[0].Efficiency)
	assert.Equal(t, 0, pool[0].Topic.PlannerFrequency)
	assert.Equal(t, []string{"Optics", "Waves"}, names(pool))
}

func Test_without(t *testing.T) {
	pool := []RevisionTopic{topic("A", "x"), topic("B", "x"), topic("C", "x")}
	assert.Equal(t, []string{"B"}, names(without(pool, []int{2, 0})))
	assert.Equal(t, []string{"A", "B", "C"}, names(without(pool, nil)))
}
