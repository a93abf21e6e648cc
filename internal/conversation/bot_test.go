package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sst-resolve/resolve-bot/internal/catalog"
	"github.com/sst-resolve/resolve-bot/internal/database/dbtest"
	"github.com/sst-resolve/resolve-bot/internal/finalize"
	"github.com/sst-resolve/resolve-bot/internal/metrics"
	"github.com/sst-resolve/resolve-bot/internal/model"
	"github.com/sst-resolve/resolve-bot/internal/service"
	"github.com/sst-resolve/resolve-bot/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const user = "+919999999999"

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *fakeSender) SendText(_ context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	return s.err
}

func (s *fakeSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1]
}

type failingFinalizer struct{}

func (failingFinalizer) Finalize(context.Context, string, session.Draft) (*finalize.Report, error) {
	return nil, errors.New("db down")
}

type harness struct {
	bot      *Bot
	tickets  *service.TicketService
	students *service.StudentService
	sessions *session.MemoryStore[session.Session]
	progress *session.MemoryStore[session.RegistrationField]
	sender   *fakeSender
	reg      *prometheus.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.Open(t)
	h := &harness{
		tickets:  service.NewTicketService(db),
		students: service.NewStudentService(db),
		sessions: session.NewMemoryStore[session.Session](),
		progress: session.NewMemoryStore[session.RegistrationField](),
		sender:   &fakeSender{},
		reg:      prometheus.NewRegistry(),
	}
	m := metrics.New(h.reg)
	h.bot = NewBot(Deps{
		Students:     h.students,
		Sessions:     h.sessions,
		Registration: h.progress,
		Finalizer: finalize.New(finalize.Deps{
			Tickets:  h.tickets,
			Students: h.students,
			Channels: catalog.DefaultChannels(),
			Metrics:  m,
		}),
		Sender:  h.sender,
		Metrics: m,
	})
	return h
}

func (h *harness) register(t *testing.T) {
	t.Helper()
	name, hostel := "Asha", "Neeladri"
	require.NoError(t, h.students.Upsert(context.Background(), user, service.ProfileUpdate{FullName: &name, Hostel: &hostel}))
}

func (h *harness) say(t *testing.T, msgs ...string) {
	t.Helper()
	for _, msg := range msgs {
		require.NoError(t, h.bot.HandleMessage(context.Background(), "whatsapp:"+user, msg))
	}
}

func (h *harness) onlyTicket(t *testing.T) model.Ticket {
	t.Helper()
	items, total, err := h.tickets.List(context.Background(), nil, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	return items[0]
}

func TestHostelMessTicket(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	h.say(t, "hi")
	assert.Equal(t, catalog.PromptMainMenu, h.sender.last())

	h.say(t, "1", "1", "1", "2", "2025-11-04")
	assert.Equal(t, catalog.PromptMessDescription, h.sender.last())

	h.say(t, "cold food")
	assert.Equal(t, catalog.PromptTicketCreated, h.sender.last())

	tk := h.onlyTicket(t)
	assert.Equal(t, user, tk.UserNumber)
	assert.Equal(t, "Hostel", tk.Category)
	assert.Equal(t, "Mess Quality Issues", tk.Subcategory)
	assert.Equal(t, "Neeladri", *tk.Location)
	assert.Equal(t, "cold food", *tk.Description)
	assert.Equal(t, model.TicketStatusOpen, tk.Status)
	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(*tk.Details), &details))
	assert.Equal(t, map[string]any{"meal": "Lunch", "date": "2025-11-04"}, details)

	_, ok, err := h.sessions.Get(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, ok, "session dropped after finalize")
}

func TestCollegeTicketWithoutGreeting(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	// no session yet: the first message is read as a main menu answer
	h.say(t, "2")
	assert.Equal(t, catalog.PromptCollegeIssueType, h.sender.last())
	h.say(t, "4", "projector broken")

	tk := h.onlyTicket(t)
	assert.Equal(t, "College", tk.Category)
	assert.Equal(t, "Other", tk.Subcategory)
	assert.Nil(t, tk.Location)
	assert.Nil(t, tk.Details)
}

func TestInvalidChoiceKeepsStep(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	h.say(t, "hi", "1", "9")
	assert.Equal(t, catalog.PromptHostelLocation, h.sender.last())
	s, ok, err := h.sessions.Get(context.Background(), user)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.StepHostelLocation, s.Step)
}

func TestGreetingResetsFlow(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	h.say(t, "hi", "1", "1", "2")
	h.say(t, "Hello")
	assert.Equal(t, catalog.PromptMainMenu, h.sender.last())

	s, _, err := h.sessions.Get(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, session.Session{UserID: user, Step: session.StepMain}, s)
}

func TestUnknownStoredStepResets(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	require.NoError(t, h.sessions.Set(context.Background(), user, session.Session{UserID: user, Step: session.StepUnknown}))

	h.say(t, "1")
	assert.Equal(t, catalog.PromptMainMenu, h.sender.last())
	s, _, _ := h.sessions.Get(context.Background(), user)
	assert.Equal(t, session.StepMain, s.Step)
}

func TestRegistration(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.say(t, "hello")
	require.Equal(t, []string{catalog.PromptRegisterName}, h.sender.sent)
	_, err := h.students.Get(ctx, user)
	assert.Error(t, err, "first contact does not create a profile")

	h.say(t, "Asha", "204", "9999999999", "1")
	assert.Equal(t, []string{
		catalog.PromptRegisterName,
		catalog.PromptRegisterRoom,
		catalog.PromptRegisterMobile,
		catalog.PromptRegisterHostel,
		catalog.PromptRegisterCompleted,
		catalog.PromptMainMenu,
	}, h.sender.sent)

	p, err := h.students.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.FullName)
	assert.Equal(t, "204", p.RoomNumber)
	assert.Equal(t, "9999999999", p.Mobile)
	assert.Equal(t, "Neeladri", p.Hostel)
	assert.True(t, p.Registered())

	// registered users go straight to the flow
	h.say(t, "2")
	assert.Equal(t, catalog.PromptCollegeIssueType, h.sender.last())
}

func TestRegistrationSavesEveryAnswer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.say(t, "hi", "Asha", "204")
	p, err := h.students.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.FullName)
	assert.Equal(t, "204", p.RoomNumber)
	assert.Empty(t, p.Mobile)
	assert.Empty(t, p.Hostel)
	assert.False(t, p.Registered())

	// progress marker lost (restart): the partial profile stays in registration
	require.NoError(t, h.progress.Delete(ctx, user))
	h.say(t, "1")
	assert.Equal(t, catalog.PromptRegisterName, h.sender.last())
	_, ok, err := h.sessions.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok, "menu not opened for a half-registered profile")

	p, err = h.students.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.FullName)
	assert.Equal(t, "204", p.RoomNumber)

	h.say(t, "Asha K", "204", "9999999999", "1")
	p, err = h.students.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Asha K", p.FullName)
	assert.True(t, p.Registered())
	assert.Equal(t, catalog.PromptMainMenu, h.sender.last())
}

func TestRegistrationLongAnswers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	name := strings.Repeat("Asha ", 60)
	room := "Block C, second floor, the room right next to the common washroom " + strings.Repeat("#", 64)
	require.Greater(t, len(room), 100)

	h.say(t, "hi", name, room, "+91 99999 99999 (whatsapp only, call after 6pm please)", "1")

	p, err := h.students.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(name), p.FullName)
	assert.Equal(t, room, p.RoomNumber)
	assert.True(t, p.Registered())
	assert.Equal(t, catalog.PromptMainMenu, h.sender.last())
}

func TestRegistrationUnknownHostel(t *testing.T) {
	h := newHarness(t)
	h.say(t, "hi", "Ravi", "101", "8888888888", "3")

	p, err := h.students.Get(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, catalog.HostelUnset, p.Hostel)
	assert.Equal(t, catalog.PromptMainMenu, h.sender.last())
}

func TestIgnoresEmptyMessages(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.bot.HandleMessage(context.Background(), "", "hi"))
	require.NoError(t, h.bot.HandleMessage(context.Background(), "whatsapp:"+user, "   "))
	assert.Empty(t, h.sender.sent)
}

func TestSendFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	h.sender.err = errors.New("twilio 503")

	h.say(t, "hi", "1")
	s, _, err := h.sessions.Get(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, session.StepHostelLocation, s.Step, "state advances even when the reply is lost")
}

func TestFinalizeFailureKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	h.bot.finalizer = failingFinalizer{}

	h.say(t, "hi", "2", "4")
	err := h.bot.HandleMessage(context.Background(), "whatsapp:"+user, "projector broken")
	assert.ErrorContains(t, err, "db down")

	s, ok, _ := h.sessions.Get(context.Background(), user)
	require.True(t, ok)
	assert.Equal(t, session.StepCollegeOtherDesc, s.Step)
	assert.NotEqual(t, catalog.PromptTicketCreated, h.sender.last())
}
