package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"github.com/sst-resolve/resolve-bot/internal/model"
)

// Action ids of the ticket buttons.
const (
	ActionInProgress = "ticket_in_progress"
	ActionSetTAT     = "ticket_set_tat"
	ActionAddComment = "ticket_add_comment"
	ActionClose      = "ticket_close"
)

// button value prefixes, "<prefix><ticket id>"
var actionValuePrefix = map[string]string{
	ActionInProgress: "in_progress_",
	ActionSetTAT:     "set_tat_",
	ActionAddComment: "add_comment_",
	ActionClose:      "close_",
}

// SlackPoster posts ticket summaries to Slack channels.
type SlackPoster struct {
	api *slack.Client
}

// NewSlackPoster returns a poster; with an empty token PostTicket is a no-op.
// apiURL overrides the Slack Web API base (tests, proxies).
func NewSlackPoster(token, apiURL string) *SlackPoster {
	if token == "" {
		return &SlackPoster{}
	}
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &SlackPoster{api: slack.New(token, opts...)}
}

func (p *SlackPoster) Enabled() bool { return p.api != nil }

// PostTicket posts text with the ticket action buttons and returns the message ts.
// It returns "" and no error when Slack is not configured.
func (p *SlackPoster) PostTicket(ctx context.Context, channel, text string, ticketID uint64) (string, error) {
	if p.api == nil {
		return "", nil
	}
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
	}
	if ticketID != 0 {
		blocks = append(blocks, TicketActions(ticketID))
	}
	_, ts, err := p.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return "", fmt.Errorf("slack post to %s: %w", channel, err)
	}
	return ts, nil
}

// TicketActions builds the button row attached to a ticket message.
func TicketActions(ticketID uint64) *slack.ActionBlock {
	id := strconv.FormatUint(ticketID, 10)
	button := func(action, label string) *slack.ButtonBlockElement {
		return slack.NewButtonBlockElement(action, actionValuePrefix[action]+id,
			slack.NewTextBlockObject(slack.PlainTextType, label, true, false))
	}
	return slack.NewActionBlock("ticket_actions_"+id,
		button(ActionInProgress, "🔄 Mark In Progress").WithStyle(slack.StylePrimary),
		button(ActionSetTAT, "⏱️ Update TAT"),
		button(ActionAddComment, "💬 Add Comment"),
		button(ActionClose, "✅ Close Ticket").WithStyle(slack.StyleDanger),
	)
}

// ParseAction decodes a button click into the ticket id and the status it asks for.
// Buttons that do not change status (TAT, comment) return an empty status.
func ParseAction(actionID, value string) (ticketID uint64, status model.TicketStatus, err error) {
	prefix, ok := actionValuePrefix[actionID]
	if !ok {
		return 0, "", fmt.Errorf("unknown action %q", actionID)
	}
	raw, ok := strings.CutPrefix(value, prefix)
	if !ok {
		return 0, "", fmt.Errorf("action %s: malformed value %q", actionID, value)
	}
	ticketID, err = strconv.ParseUint(raw, 10, 64)
	if err != nil || ticketID == 0 {
		return 0, "", fmt.Errorf("action %s: bad ticket id %q", actionID, raw)
	}
	switch actionID {
	case ActionInProgress:
		status = model.TicketStatusInProgress
	case ActionClose:
		status = model.TicketStatusClosed
	}
	return ticketID, status, nil
}
