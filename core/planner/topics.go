package planner

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/revisa/core"
)

// NewTopic is a topic a student reports as studied but not yet revised.
type NewTopic struct {
	Name     string `json:"name" validate:"required,notblank"`
	Chapter  string `json:"chapter"`
	Subject  string `json:"subject" validate:"required,notblank"`
	Level    string `json:"level"`
	Standard int    `json:"standard" validate:"gte=0"`
}

func (nt *NewTopic) Validate() error {
	nt.Name = core.CleanString(nt.Name, true /* lower */)
	nt.Chapter = core.CleanString(nt.Chapter, true /* lower */)
	nt.Subject = core.CleanString(nt.Subject, true /* lower */)
	nt.Level = core.CleanString(nt.Level, true /* lower */)
	return core.Validate.Struct(nt)
}

// RecordTopics stores the reported topics as pending continuous revision topics and extends the student's streak.
// Topics already pending under the same name are skipped.
func (svc *Service) RecordTopics(ctx context.Context, userID string, topics []NewTopic) ([]RevisionTopic, error) {
	for i := range topics {
		if err := topics[i].Validate(); err != nil {
			return nil, err
		}
	}
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "getting user")
	}

	created := make([]RevisionTopic, 0, len(topics))
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		pending, err := svc.topics.QueryTopics(ctx, TopicFilter{StudentID: usr.ID, Tag: TagContinuousRevision})
		if err != nil {
			return errors.Wrap(err, "querying pending topics")
		}
		seen := make(map[string]struct{}, len(pending)+len(topics))
		for _, rt := range pending {
			seen[rt.Topic.key()] = struct{}{}
		}

		now := NowFunc().UTC()
		for _, nt := range topics {
			if _, dup := seen[nt.Name]; dup {
				continue
			}
			seen[nt.Name] = struct{}{}

			standard := nt.Standard
			if standard == 0 {
				standard = usr.Standard
			}
			rt, err := svc.topics.CreateTopic(ctx, RevisionTopic{
				StudentID: usr.ID,
				Tag:       TagContinuousRevision,
				Topic:     Topic{Name: nt.Name, Level: nt.Level, StudiedAt: make([]StudyEvent, 0)},
				Chapter:   Chapter{Name: nt.Chapter, Level: nt.Level},
				Subject:   nt.Subject,
				Standard:  standard,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return errors.Wrap(err, "creating revision topic")
			}
			created = append(created, rt)
		}

		_, err = svc.users.ExtendStreak(ctx, usr)
		return errors.Wrap(err, "extending streak")
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// PendingTopics lists the student's continuous revision topics not yet scheduled on a planner.
func (svc *Service) PendingTopics(ctx context.Context, userID string) ([]RevisionTopic, error) {
	if err := core.ValidateID("id", userID); err != nil {
		return nil, err
	}
	topics, err := svc.topics.QueryTopics(ctx, TopicFilter{StudentID: userID, Tag: TagContinuousRevision})
	return topics, errors.Wrap(err, "querying pending topics")
}

// DeleteTopics removes the student's pending topics named in names (all of them when names is empty).
// It returns the number of topics removed.
func (svc *Service) DeleteTopics(ctx context.Context, userID string, names []string) (int, error) {
	if err := core.ValidateID("id", userID); err != nil {
		return 0, err
	}
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name = core.CleanString(name, true /* lower */); name != "" {
			wanted[name] = struct{}{}
		}
	}

	var deleted int
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		pending, err := svc.topics.QueryTopics(ctx, TopicFilter{StudentID: userID, Tag: TagContinuousRevision})
		if err != nil {
			return errors.Wrap(err, "querying pending topics")
		}
		ids := make([]string, 0, len(pending))
		for _, rt := range pending {
			if _, ok := wanted[rt.Topic.key()]; ok || len(wanted) == 0 {
				ids = append(ids, rt.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		deleted, err = svc.topics.DeleteTopics(ctx, userID, ids...)
		return errors.Wrap(err, "deleting pending topics")
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
