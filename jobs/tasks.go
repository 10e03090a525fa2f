package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeRegistrationNotify fans a registration lifecycle event out to
	// the parties that need to hear about it.
	TaskTypeRegistrationNotify = "registration:notify"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// RegistrationNotifyPayload carries a registration lifecycle event.
type RegistrationNotifyPayload struct {
	Event      string `json:"event"`
	RequestID  string `json:"requestId"`
	DealerCode string `json:"dealerCode"`
	Email      string `json:"email"`
	Detail     string `json:"detail,omitempty"`
}

// NewRegistrationNotifyTask constructs an Asynq task.
func NewRegistrationNotifyTask(payload RegistrationNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRegistrationNotify, data), nil
}

// TaskObserver counts task executions. Implemented by observability.Metrics.
type TaskObserver interface {
	ObserveTask(task, outcome string)
}

// Processor holds the dependencies task handlers need.
type Processor struct {
	Mailer     Mailer
	AdminEmail string
	Logger     *slog.Logger
	Observer   TaskObserver
}

// HandleSendEmail processes TaskTypeSendEmail tasks.
func (p *Processor) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := p.Mailer.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		p.observe(TaskTypeSendEmail, "error")
		return err
	}
	p.observe(TaskTypeSendEmail, "ok")
	return nil
}

// HandleRegistrationNotify processes TaskTypeRegistrationNotify tasks. The
// submitted event goes to the back office; decisions go to the applicant.
func (p *Processor) HandleRegistrationNotify(ctx context.Context, t *asynq.Task) error {
	var payload RegistrationNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	to, subject, body := p.composeRegistrationMail(payload)
	if to == "" {
		p.Logger.Warn("registration notify with no recipient",
			slog.String("event", payload.Event),
			slog.String("request_id", payload.RequestID),
		)
		return asynq.SkipRetry
	}
	if err := p.Mailer.Send(ctx, to, subject, body); err != nil {
		p.observe(TaskTypeRegistrationNotify, "error")
		return err
	}
	p.observe(TaskTypeRegistrationNotify, "ok")
	return nil
}

func (p *Processor) composeRegistrationMail(payload RegistrationNotifyPayload) (to, subject, body string) {
	switch payload.Event {
	case "submitted":
		to = p.AdminEmail
		subject = fmt.Sprintf("New dealer registration %s", payload.DealerCode)
		body = fmt.Sprintf("A registration request for dealer %s (%s) is awaiting review.\nRequest ID: %s\n",
			payload.DealerCode, payload.Email, payload.RequestID)
	case "approved":
		to = payload.Email
		subject = "Your dealer portal registration has been approved"
		body = fmt.Sprintf("The registration for dealer %s has been approved. You can now sign in with the credentials provided by your account manager.\n",
			payload.DealerCode)
	case "rejected":
		to = payload.Email
		subject = "Your dealer portal registration has been rejected"
		body = fmt.Sprintf("The registration for dealer %s was not approved.\nReason: %s\n",
			payload.DealerCode, payload.Detail)
	}
	return to, subject, body
}

func (p *Processor) observe(task, outcome string) {
	if p.Observer != nil {
		p.Observer.ObserveTask(task, outcome)
	}
}

// Notifier enqueues registration events for asynchronous delivery. Implements
// the notifier the registration service expects.
type Notifier struct {
	client *Client
}

// NewNotifier constructs a Notifier over the queue client.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

// RegistrationEvent enqueues one lifecycle event.
func (n *Notifier) RegistrationEvent(ctx context.Context, event string, requestID uuid.UUID, dealerCode, email, detail string) error {
	task, err := NewRegistrationNotifyTask(RegistrationNotifyPayload{
		Event:      event,
		RequestID:  requestID.String(),
		DealerCode: dealerCode,
		Email:      email,
		Detail:     detail,
	})
	if err != nil {
		return err
	}
	_, err = n.client.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
	return err
}
