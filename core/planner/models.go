package planner

import (
	"strings"
	"time"
)

// RevisionTopic tags
const (
	TagContinuousRevision       = "continuous_revision"
	TagActiveContinuousRevision = "active_continuous_revision"
	TagBackRevision             = "back_revision"
)

// Weekdays lists the planner days in their fixed order.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type (
	// StudyEvent records that a topic was (or will be) studied on Date.
	StudyEvent struct {
		Date       time.Time `json:"date"`
		Efficiency float64   `json:"efficiency"`
	}

	Topic struct {
		Name              string       `json:"name"`
		Level             string       `json:"level,omitempty"`
		OverallEfficiency float64      `json:"overall_efficiency"`
		PlannerFrequency  int          `json:"planner_frequency"`
		StudiedAt         []StudyEvent `json:"studied_at"`
	}

	Chapter struct {
		Name              string  `json:"name"`
		Level             string  `json:"level,omitempty"`
		OverallEfficiency float64 `json:"overall_efficiency"`
		PlannerFrequency  int     `json:"planner_frequency"`
	}

	// RevisionTopic is one unit of study data a student recorded for revision.
	RevisionTopic struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		Tag       string    `json:"tag"`
		Topic     Topic     `json:"topic"`
		Chapter   Chapter   `json:"chapter"`
		Subject   string    `json:"subject"`
		Standard  int       `json:"standard"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	Question struct {
		ID       string   `json:"id"`
		Question string   `json:"question"`
		Options  []string `json:"options"`
		Answer   string   `json:"answer"`
		Level    string   `json:"level"`
		Subject  string   `json:"subject,omitempty"`
		Topics   []string `json:"topics"`
	}

	// Questions maps a topic name to the questions drawn for it.
	Questions map[string][]Question

	Day struct {
		Date                     time.Time       `json:"date"`
		Weekday                  string          `json:"day"`
		ContinuousRevisionTopics []RevisionTopic `json:"continuous_revision_topics"`
		BackRevisionTopics       []RevisionTopic `json:"back_revision_topics"`
		Chapters                 []string        `json:"chapters"`
		CompletedTopics          []string        `json:"completed_topics"`
		IncompletedTopics        []string        `json:"incompleted_topics"`
		Questions                Questions       `json:"questions"`
	}

	Planner struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		StartDate time.Time `json:"start_date"`
		EndDate   time.Time `json:"end_date"` // ISO-week Sunday; identifies the week
		Days      []Day     `json:"days"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}
)

// key is the case-insensitive identity used for deduplication.
func (t Topic) key() string {
	return strings.ToLower(strings.TrimSpace(t.Name))
}

// markStudied appends the assignment event for date and bumps the planner frequency.
func (rt *RevisionTopic) markStudied(date time.Time) {
	rt.Topic.StudiedAt = append(rt.Topic.StudiedAt, StudyEvent{Date: date, Efficiency: 0})
	rt.Topic.PlannerFrequency++
}

// clone deep copies rt so that later mutations never leak into snapshots.
func (rt RevisionTopic) clone() RevisionTopic {
	events := make([]StudyEvent, len(rt.Topic.StudiedAt))
	copy(events, rt.Topic.StudiedAt)
	rt.Topic.StudiedAt = events
	return rt
}

func (d Day) DateKey() string {
	return d.Date.Format(dateLayout)
}

// TopicNames returns the lowered names of every topic already scheduled on d.
func (d Day) TopicNames() map[string]struct{} {
	names := make(map[string]struct{}, len(d.ContinuousRevisionTopics)+len(d.BackRevisionTopics))
	for _, rt := range d.ContinuousRevisionTopics {
		names[rt.Topic.key()] = struct{}{}
	}
	for _, rt := range d.BackRevisionTopics {
		names[rt.Topic.key()] = struct{}{}
	}
	return names
}

// Day returns the planner Day falling on date (compared as calendar dates in date's location).
func (p Planner) Day(date time.Time) (int, Day, bool) {
	key := date.Format(dateLayout)
	for i, d := range p.Days {
		if d.Date.In(date.Location()).Format(dateLayout) == key {
			return i, d, true
		}
	}
	return -1, Day{}, false
}

func (p Planner) TopicCount() int {
	var n int
	for _, d := range p.Days {
		n += len(d.ContinuousRevisionTopics) + len(d.BackRevisionTopics)
	}
	return n
}

// merge overlays newer on top of qs (newer wins on key collision).
func (qs Questions) merge(newer Questions) Questions {
	merged := make(Questions, len(qs)+len(newer))
	for k, v := range qs {
		merged[k] = v
	}
	for k, v := range newer {
		merged[k] = v
	}
	return merged
}

type TopicFilter struct {
	StudentID   string
	Tag         string
	CreatedFrom time.Time
	// IncludeUnscheduled also matches topics created before CreatedFrom that were never scheduled.
	IncludeUnscheduled bool
}

type PlannerFilter struct {
	StudentID string
	WeekStart time.Time // planners starting on/after
	WeekEnd   time.Time // planners ending on/before
}

type QuestionQuery struct {
	Topic      string
	Level      string
	ExcludeIDs []string
}
