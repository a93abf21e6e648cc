// Package conversation drives the WhatsApp intake dialogue: registration gate,
// menu state machine and hand-off of completed drafts to the finalizer.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sst-resolve/resolve-bot/internal/catalog"
	"github.com/sst-resolve/resolve-bot/internal/errs"
	"github.com/sst-resolve/resolve-bot/internal/finalize"
	"github.com/sst-resolve/resolve-bot/internal/metrics"
	"github.com/sst-resolve/resolve-bot/internal/service"
	"github.com/sst-resolve/resolve-bot/internal/session"
)

// WhatsAppPrefix marks WhatsApp addresses in the messaging provider.
const WhatsAppPrefix = "whatsapp:"

type Sender interface {
	SendText(ctx context.Context, to, text string) error
}

type Finalizer interface {
	Finalize(ctx context.Context, userID string, d session.Draft) (*finalize.Report, error)
}

type Deps struct {
	Students     service.StudentServicer
	Sessions     session.Store[session.Session]
	Registration session.Store[session.RegistrationField]
	Finalizer    Finalizer
	Sender       Sender
	Metrics      *metrics.Metrics
	Log          *zap.Logger
}

// Bot handles one inbound message at a time per call; calls for different users may
// run concurrently. Messages from the same user are last-write-wins on the session.
type Bot struct {
	students  service.StudentServicer
	sessions  session.Store[session.Session]
	register  *Registration
	finalizer Finalizer
	sender    Sender
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewBot(d Deps) *Bot {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		students:  d.Students,
		sessions:  d.Sessions,
		register:  NewRegistration(d.Students, d.Registration),
		finalizer: d.Finalizer,
		sender:    d.Sender,
		metrics:   d.Metrics,
		log:       log,
	}
}

// HandleMessage processes one inbound message. A returned error means state could not
// be read or written; failures to deliver a reply are only logged.
func (b *Bot) HandleMessage(ctx context.Context, from, body string) error {
	userID := strings.TrimPrefix(strings.TrimSpace(from), WhatsAppPrefix)
	text := strings.TrimSpace(body)
	if userID == "" || text == "" {
		b.metrics.Message(metrics.RouteIgnored)
		return nil
	}
	log := b.log.With(zap.String("user", userID))

	profile, err := b.students.Get(ctx, userID)
	if err != nil && !errors.Is(err, errs.ErrStudentNotFound) {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil || !profile.Registered() {
		b.metrics.Message(metrics.RouteRegistration)
		res, err := b.register.Handle(ctx, userID, text)
		if err != nil {
			return err
		}
		for _, p := range res.Prompts {
			b.send(ctx, log, userID, p)
		}
		if res.Completed {
			return b.startMenu(ctx, log, userID)
		}
		return nil
	}

	if IsGreeting(text) {
		b.metrics.Message(metrics.RouteGreeting)
		return b.startMenu(ctx, log, userID)
	}

	b.metrics.Message(metrics.RouteFlow)
	sess, ok, err := b.sessions.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !ok {
		sess = session.Session{UserID: userID, Step: session.StepMain}
	}

	tr := Advance(sess.Step, sess.Draft, text)
	if tr.Done {
		// Сессия остаётся, если тикет не записан: пользователь может повторить.
		rep, err := b.finalizer.Finalize(ctx, userID, tr.Draft)
		if err != nil {
			return fmt.Errorf("finalize ticket: %w", err)
		}
		if err := b.sessions.Delete(ctx, userID); err != nil {
			log.Warn("drop session failed", zap.Error(err))
		}
		log.Info("ticket submitted",
			zap.Uint64("ticket_id", rep.Ticket.ID),
			zap.Bool("channel_posted", rep.Channel.Handle != ""),
			zap.Bool("email_sent", rep.Email.To != "" && rep.Email.Err == nil),
		)
		b.send(ctx, log, userID, catalog.PromptTicketCreated)
		return nil
	}

	sess.UserID = userID
	sess.Step = tr.Next
	sess.Draft = tr.Draft
	if err := b.sessions.Set(ctx, userID, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	b.send(ctx, log, userID, tr.Prompt)
	return nil
}

func (b *Bot) startMenu(ctx context.Context, log *zap.Logger, userID string) error {
	if err := b.sessions.Set(ctx, userID, session.Session{UserID: userID, Step: session.StepMain}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	b.send(ctx, log, userID, catalog.PromptMainMenu)
	return nil
}

func (b *Bot) send(ctx context.Context, log *zap.Logger, userID, text string) {
	if err := b.sender.SendText(ctx, userID, text); err != nil {
		b.metrics.SendFailure()
		log.Warn("send reply failed", zap.Error(err))
	}
}
