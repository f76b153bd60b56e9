package user

import (
	"strings"
	"time"
)

// Subscription statuses & categories
const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	CategoryBasic   = "basic"
	CategoryPro     = "pro"
	CategoryPremium = "premium"
	CategoryFree    = "free"
)

// categoryRanks orders categories from the lowest to the highest access level.
var categoryRanks = map[string]int{
	CategoryBasic:   1,
	CategoryPro:     2,
	CategoryPremium: 3,
	CategoryFree:    4,
}

func CategoryRank(category string) int {
	return categoryRanks[category]
}

type (
	Subscription struct {
		ID               string     `json:"id"`
		Status           string     `json:"status"`
		Category         string     `json:"category"`
		DateOfActivation *time.Time `json:"date_of_activation"`
	}

	FreeTrial struct {
		Availed            bool       `json:"availed"`
		Active             bool       `json:"active"`
		DateOfActivation   *time.Time `json:"date_of_activation"`
		DateOfDeactivation *time.Time `json:"date_of_deactivation"`
	}

	// Streak counts the consecutive days a student reported study progress.
	Streak struct {
		Count     int        `json:"number"`
		UpdatedAt *time.Time `json:"updated_at"`
	}

	// User is a student of the platform. Identity & credentials are owned by the auth service.
	User struct {
		ID           string       `json:"id"`
		Name         string       `json:"name"`
		Email        string       `json:"email"`
		Standard     int          `json:"standard"`
		Subjects     []string     `json:"subjects"`
		Subscription Subscription `json:"subscription"`
		FreeTrial    FreeTrial    `json:"free_trial"`
		HasPlanner   bool         `json:"planner"`
		Streak       Streak       `json:"streak"`
		CreatedAt    time.Time    `json:"created_at"` // UTC
		UpdatedAt    time.Time    `json:"updated_at"` // UTC
	}
)

// ActivationDate returns the activation date of the entitlement currently in effect: the active
// free trial, else the active subscription. Without any, the latest known activation is returned.
func (u User) ActivationDate() (time.Time, bool) {
	trial, hasTrial := activationOf(u.FreeTrial.DateOfActivation)
	sub, hasSub := activationOf(u.Subscription.DateOfActivation)
	switch {
	case u.FreeTrial.Active && hasTrial:
		return trial, true
	case u.HasActiveSubscription() && hasSub:
		return sub, true
	case hasTrial && hasSub:
		if sub.After(trial) {
			return sub, true
		}
		return trial, true
	case hasTrial:
		return trial, true
	case hasSub:
		return sub, true
	}
	return time.Time{}, false
}

func activationOf(t *time.Time) (time.Time, bool) {
	if t == nil || t.IsZero() {
		return time.Time{}, false
	}
	return *t, true
}

func (u User) HasActiveSubscription() bool {
	return u.Subscription.Status == StatusActive
}

// IsEligible reports whether the batch jobs should build planners for u:
// an active subscription with an activation date, or an active free trial.
func (u User) IsEligible() bool {
	if u.HasActiveSubscription() && u.Subscription.DateOfActivation != nil && !u.Subscription.DateOfActivation.IsZero() {
		return true
	}
	return u.FreeTrial.Active
}

// Category returns the effective access category: the paid one, or `free` while on trial only.
func (u User) Category() string {
	if u.HasActiveSubscription() && u.Subscription.Category != "" {
		return strings.ToLower(u.Subscription.Category)
	}
	if u.FreeTrial.Active {
		return CategoryFree
	}
	return ""
}

// HasCategory reports whether u may access features requiring `required` or lower.
func (u User) HasCategory(required string) bool {
	return CategoryRank(u.Category()) >= CategoryRank(required)
}

func (u User) StudiesSubject(subject string) bool {
	if len(u.Subjects) == 0 {
		return true
	}
	for _, s := range u.Subjects {
		if strings.EqualFold(s, subject) {
			return true
		}
	}
	return false
}

type QueryFilter struct {
	Eligible bool
	// StreakBefore matches users with a running streak last extended before that instant.
	StreakBefore time.Time
}

func (qf *QueryFilter) IsEmpty() bool {
	return !qf.Eligible && qf.StreakBefore.IsZero()
}
