package planner

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/mail"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/user"
)

var scheduleHeader = []string{"date", "day", "revision", "subject", "chapter", "topic"}

func (svc *Service) notify(usr user.User, p Planner) {
	if svc.mailSvc == nil || usr.Email == "" {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your weekly planner is ready",
		TemplateName: "planner_ready",
		TemplateData: map[string]interface{}{
			"Name":       usr.Name,
			"StartDate":  p.StartDate.Format("Mon, 02 Jan"),
			"EndDate":    p.EndDate.Format("Mon, 02 Jan"),
			"TopicCount": p.TopicCount(),
		},
		Metadata: map[string]string{
			"student_id": usr.ID,
			"planner_id": p.ID,
			"week":       svc.cal.day(p.StartDate).Format(dateLayout),
		},
	}

	schedule, err := svc.schedule(p)
	if err == nil {
		err = msg.Attach(schedule, fmt.Sprintf("planner-%s.csv", svc.cal.day(p.StartDate).Format(dateLayout)), "text/csv")
	}
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("attaching planner %s: %v", p.ID, err), err)
	}

	svc.mailSvc.SendMessages(msg)
	svc.logger.Debug(fmt.Sprintf("planner ready email queued for %s", usr.ID))
}

// schedule writes one CSV row per topic scheduled on p, day by day.
func (svc *Service) schedule(p Planner) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	if err := w.Write(scheduleHeader); err != nil {
		return nil, err
	}
	for _, d := range p.Days {
		date := svc.cal.day(d.Date).Format(dateLayout)
		for _, group := range []struct {
			kind   string
			topics []RevisionTopic
		}{
			{"continuous", d.ContinuousRevisionTopics},
			{"back", d.BackRevisionTopics},
		} {
			for _, rt := range group.topics {
				if err := w.Write([]string{date, d.Weekday, group.kind, rt.Subject, rt.Chapter.Name, rt.Topic.Name}); err != nil {
					return nil, err
				}
			}
		}
	}
	w.Flush()
	return buf, w.Error()
}
