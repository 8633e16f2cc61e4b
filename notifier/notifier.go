package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taskboard/model"
	"taskboard/workflow"

	"go.uber.org/zap"
)

// Message is a rendered notification addressed to resolved users.
type Message struct {
	To       []model.User
	Template workflow.Template
	Subject  string
	HTML     string
	Text     string
	Data     map[string]string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Directory is the part of the user store needed to resolve recipients.
type Directory interface {
	ListUsersByRole(ctx context.Context, role workflow.Role) ([]model.User, error)
	ListUsersByTeam(ctx context.Context, team string) ([]model.User, error)
}

// Dispatcher turns triggers into messages and hands them to every sender.
// Delivery is best effort: failures are logged and never returned.
type Dispatcher struct {
	users   Directory
	senders []Sender
	baseURL string
	log     *zap.SugaredLogger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(users Directory, log *zap.SugaredLogger, baseURL string, senders ...Sender) *Dispatcher {
	return &Dispatcher{
		users:   users,
		senders: senders,
		baseURL: baseURL,
		log:     log,
		timeout: 30 * time.Second,
	}
}

// Notify delivers in the background on a context detached from the request.
func (d *Dispatcher) Notify(ctx context.Context, task model.Task, triggers []workflow.Trigger) {
	if len(triggers) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		d.Deliver(ctx, task, triggers)
	}()
}

// Wait blocks until background deliveries have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Deliver sends synchronously and returns how many messages reached at least one sender.
func (d *Dispatcher) Deliver(ctx context.Context, task model.Task, triggers []workflow.Trigger) int {
	delivered := 0
	for _, trigger := range triggers {
		recipients, err := d.resolve(ctx, trigger.Recipient)
		if err != nil {
			d.log.Warnw("skip notification", "taskId", task.ID, "template", trigger.Template, "error", err)
			continue
		}
		if len(recipients) == 0 {
			d.log.Infow("no recipients for notification", "taskId", task.ID, "template", trigger.Template)
			continue
		}

		msg, err := Render(trigger.Template, task, d.baseURL)
		if err != nil {
			d.log.Errorw("render notification", "taskId", task.ID, "template", trigger.Template, "error", err)
			continue
		}
		msg.To = recipients

		sent := false
		for _, s := range d.senders {
			if err := s.Send(ctx, msg); err != nil {
				d.log.Warnw("send notification", "taskId", task.ID, "template", trigger.Template, "sender", fmt.Sprintf("%T", s), "error", err)
				continue
			}
			sent = true
		}
		if sent {
			delivered++
		}
	}
	return delivered
}

func (d *Dispatcher) resolve(ctx context.Context, r workflow.Recipient) ([]model.User, error) {
	switch r.Kind {
	case workflow.RecipientDeveloper:
		devs, err := d.users.ListUsersByRole(ctx, workflow.RoleDeveloper)
		if err != nil {
			return nil, fmt.Errorf("list developers: %w", err)
		}
		if len(devs) != 1 {
			return nil, fmt.Errorf("expected exactly one developer, found %d", len(devs))
		}
		return devs, nil
	case workflow.RecipientTeamMembers:
		members, err := d.users.ListUsersByTeam(ctx, r.Team)
		if err != nil {
			return nil, fmt.Errorf("list team %q: %w", r.Team, err)
		}
		return members, nil
	default:
		return nil, fmt.Errorf("unknown recipient kind %d", r.Kind)
	}
}
