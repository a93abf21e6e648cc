// Package finalize turns a completed draft into a persisted ticket and fans out the
// best-effort notifications: team channel, student email and the ticket event stream.
package finalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sst-resolve/resolve-bot/internal/catalog"
	"github.com/sst-resolve/resolve-bot/internal/errs"
	"github.com/sst-resolve/resolve-bot/internal/metrics"
	"github.com/sst-resolve/resolve-bot/internal/model"
	"github.com/sst-resolve/resolve-bot/internal/notify"
	"github.com/sst-resolve/resolve-bot/internal/service"
	"github.com/sst-resolve/resolve-bot/internal/session"
)

// DetailsKeyMessageHandle is the details key holding the channel message handle.
const DetailsKeyMessageHandle = "slack_message_ts"

const EventTicketCreated = "ticket.created"

// ChannelPoster posts a ticket summary with action buttons keyed by ticketID.
// An empty handle with a nil error means the transport is not configured.
type ChannelPoster interface {
	PostTicket(ctx context.Context, channel, text string, ticketID uint64) (string, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// EventPublisher must not block the caller.
type EventPublisher interface {
	PublishTicket(event string, t *model.Ticket)
}

type EmailLookup interface {
	Email(ctx context.Context, userNumber string) (string, error)
}

// ChannelResult is the outcome of the team channel notification.
type ChannelResult struct {
	Channel string
	Handle  string
	Skipped bool
	Err     error
	// AttachErr is set when the handle could not be written back to the ticket.
	AttachErr error
}

// EmailResult is the outcome of the student email.
type EmailResult struct {
	To      string
	Skipped bool
	Err     error
}

// Report aggregates the finalize outcome. Only the ticket write is fatal; the
// channel and email results are informational.
type Report struct {
	Ticket  *model.Ticket
	Channel ChannelResult
	Email   EmailResult
}

type Deps struct {
	Tickets  service.TicketServicer
	Students EmailLookup
	Channels catalog.Channels
	Poster   ChannelPoster
	Mailer   Mailer
	Events   EventPublisher
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

type Finalizer struct {
	Deps
}

func New(deps Deps) *Finalizer {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Finalizer{Deps: deps}
}

// Finalize persists the ticket for userID and runs the notifications. The error is
// non-nil only when the ticket could not be written.
func (f *Finalizer) Finalize(ctx context.Context, userID string, d session.Draft) (*Report, error) {
	if d.MainCategory == "" {
		return nil, errs.ErrIncompleteDraft
	}
	details, err := d.DetailsMap()
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}
	ticket := &model.Ticket{
		UserNumber:  userID,
		Category:    string(d.MainCategory),
		Subcategory: catalog.SubcategoryLabel(d.SubCategory),
		Description: optional(d.Description),
		Location:    optional(d.Location),
		Status:      model.TicketStatusOpen,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return nil, fmt.Errorf("encode details: %w", err)
		}
		ticket.Details = optional(string(raw))
	}
	if err := f.Tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	f.Metrics.TicketCreated(ticket.Category)
	log := f.Log.With(zap.Uint64("ticket_id", ticket.ID), zap.String("user", userID))
	log.Info("ticket created", zap.String("category", ticket.Category), zap.String("subcategory", ticket.Subcategory))

	if f.Events != nil {
		f.Events.PublishTicket(EventTicketCreated, ticket)
	}

	rep := &Report{Ticket: ticket}
	rep.Channel = f.notifyChannel(ctx, log, ticket, details)
	rep.Email = f.notifyEmail(ctx, log, ticket)
	return rep, nil
}

func (f *Finalizer) notifyChannel(ctx context.Context, log *zap.Logger, t *model.Ticket, details map[string]any) ChannelResult {
	res := ChannelResult{Channel: f.Channels.For(catalog.Category(t.Category))}
	if res.Channel == "" || f.Poster == nil {
		res.Skipped = true
		f.Metrics.Notification("slack", "skipped")
		return res
	}
	res.Handle, res.Err = f.Poster.PostTicket(ctx, res.Channel, Summary(t), t.ID)
	switch {
	case res.Err != nil:
		log.Warn("channel notification failed", zap.String("channel", res.Channel), zap.Error(res.Err))
		f.Metrics.Notification("slack", "failed")
		return res
	case res.Handle == "":
		res.Skipped = true
		f.Metrics.Notification("slack", "skipped")
		return res
	}
	f.Metrics.Notification("slack", "sent")

	details[DetailsKeyMessageHandle] = res.Handle
	raw, err := json.Marshal(details)
	if err == nil {
		err = f.Tickets.SetDetails(ctx, t.ID, string(raw))
	}
	if err != nil {
		res.AttachErr = err
		log.Warn("attach channel handle failed", zap.Error(err))
		return res
	}
	t.Details = optional(string(raw))
	return res
}

func (f *Finalizer) notifyEmail(ctx context.Context, log *zap.Logger, t *model.Ticket) (res EmailResult) {
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("email notification panic: %v", r)
			log.Error("email notification panic", zap.Any("panic", r))
			f.Metrics.Notification("email", "failed")
		}
	}()
	if f.Students == nil || f.Mailer == nil {
		res.Skipped = true
		f.Metrics.Notification("email", "skipped")
		return res
	}
	to, err := f.Students.Email(ctx, t.UserNumber)
	if err != nil {
		res.Err = fmt.Errorf("lookup email: %w", err)
		log.Warn("email lookup failed", zap.Error(err))
		f.Metrics.Notification("email", "failed")
		return res
	}
	if to == "" {
		res.Skipped = true
		f.Metrics.Notification("email", "skipped")
		return res
	}
	res.To = to
	subject, html, err := notify.TicketCreatedEmail(t.ID, t.Category, t.Subcategory, deref(t.Description))
	if err == nil {
		err = f.Mailer.Send(ctx, to, subject, html)
	}
	if err != nil {
		res.Err = err
		log.Warn("email notification failed", zap.String("to", to), zap.Error(err))
		f.Metrics.Notification("email", "failed")
		return res
	}
	f.Metrics.Notification("email", "sent")
	return res
}

// Summary is the channel message text for a new ticket.
func Summary(t *model.Ticket) string {
	lines := []string{
		"🆕 New Ticket Raised (via WhatsApp)",
		fmt.Sprintf("*Ticket ID:* #%d", t.ID),
		fmt.Sprintf("Category: %s → %s", t.Category, t.Subcategory),
	}
	if loc := deref(t.Location); loc != "" {
		lines = append(lines, "Location: "+loc)
	}
	lines = append(lines, "Student: "+t.UserNumber)
	if desc := deref(t.Description); desc != "" {
		lines = append(lines, "Description: "+desc)
	}
	lines = append(lines, "Status: "+statusTitle(t.Status))
	return strings.Join(lines, "\n")
}

func statusTitle(s model.TicketStatus) string {
	switch s {
	case model.TicketStatusInProgress:
		return "In Progress"
	case model.TicketStatusClosed:
		return "Closed"
	}
	return "Open"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
