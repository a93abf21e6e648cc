package conversation

import (
	"fmt"
	"strings"

	"github.com/sst-resolve/resolve-bot/internal/catalog"
	"github.com/sst-resolve/resolve-bot/internal/session"
)

// Transition is the result of feeding one message to the current step.
type Transition struct {
	Next   session.Step
	Draft  session.Draft
	Prompt string
	// Done means the draft is complete: finalize it and drop the session.
	Done bool
}

type input struct {
	text   string
	choice int
}

type applyFunc func(d *session.Draft, in input) (session.Step, bool)

// rule describes one step: the prompt sent on entering it and how input moves it on.
// A rejected input (ok=false) keeps the step and re-sends its prompt.
type rule struct {
	prompt string
	apply  applyFunc
	final  bool
}

// Advance computes the next state for step given the user's text. It never mutates
// draft and never fails: bad input loops on the same step, unknown steps reset.
func Advance(step session.Step, draft session.Draft, text string) Transition {
	r, ok := ruleFor(step)
	if !ok {
		return mainMenu()
	}
	in := input{text: strings.TrimSpace(text)}
	in.choice = catalog.ParseChoice(in.text)

	d := draft
	next, accepted := r.apply(&d, in)
	if !accepted {
		return Transition{Next: step, Draft: draft, Prompt: r.prompt}
	}
	if r.final {
		return Transition{Next: step, Draft: d, Done: true}
	}
	return Transition{Next: next, Draft: d, Prompt: rules[next].prompt}
}

func mainMenu() Transition {
	return Transition{Next: session.StepMain, Prompt: catalog.PromptMainMenu}
}

func ruleFor(step session.Step) (rule, bool) {
	if step == session.StepUnknown || step >= session.StepCount {
		return rule{}, false
	}
	r := rules[step]
	return r, r.apply != nil
}

// IsGreeting reports whether text restarts the conversation.
func IsGreeting(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "hi" || t == "hello"
}

func choose[T any](opts []T, set func(d *session.Draft, v T) session.Step) applyFunc {
	return func(d *session.Draft, in input) (session.Step, bool) {
		v, ok := catalog.Option(opts, in.choice)
		if !ok {
			return session.StepUnknown, false
		}
		return set(d, v), true
	}
}

func freeText(set func(d *session.Draft, text string) session.Step) applyFunc {
	return func(d *session.Draft, in input) (session.Step, bool) {
		if in.text == "" {
			return session.StepUnknown, false
		}
		return set(d, in.text), true
	}
}

func describe(d *session.Draft, text string) session.Step {
	d.Description = text
	return session.StepUnknown
}

func mess(d *session.Draft) session.MessDetails {
	m, _ := d.Details.(session.MessDetails)
	return m
}

func leave(d *session.Draft) session.LeaveDetails {
	l, _ := d.Details.(session.LeaveDetails)
	return l
}

func roomChange(d *session.Draft) session.RoomChangeDetails {
	r, _ := d.Details.(session.RoomChangeDetails)
	return r
}

func pickMeal(next session.Step) applyFunc {
	return choose(catalog.Meals, func(d *session.Draft, meal string) session.Step {
		m := mess(d)
		m.Meal = meal
		d.Details = m
		return next
	})
}

func messDate(next session.Step) applyFunc {
	return freeText(func(d *session.Draft, date string) session.Step {
		m := mess(d)
		m.Date = date
		d.Details = m
		return next
	})
}

func pickWiFi(next session.Step) applyFunc {
	return choose(catalog.WiFiIssues, func(d *session.Draft, issue string) session.Step {
		d.Details = session.WiFiDetails{Issue: issue}
		return next
	})
}

func terminal(prompt string) rule {
	return rule{prompt: prompt, apply: freeText(describe), final: true}
}

var rules = [session.StepCount]rule{
	session.StepMain: {
		prompt: catalog.PromptMainMenu,
		apply: choose(catalog.Categories, func(d *session.Draft, c catalog.Category) session.Step {
			*d = session.Draft{MainCategory: c}
			if c == catalog.Hostel {
				return session.StepHostelLocation
			}
			return session.StepCollegeIssueType
		}),
	},

	session.StepHostelLocation: {
		prompt: catalog.PromptHostelLocation,
		apply: choose(catalog.HostelLocations, func(d *session.Draft, loc string) session.Step {
			d.Location = loc
			return session.StepHostelIssueType
		}),
	},
	session.StepHostelIssueType: {
		prompt: catalog.PromptHostelIssueType,
		apply: choose(catalog.HostelIssues, func(d *session.Draft, is catalog.Issue) session.Step {
			d.SubCategory = is.Token
			switch is {
			case catalog.IssueMess:
				return session.StepHostelMessMeal
			case catalog.IssueLeave:
				return session.StepHostelLeaveDates
			case catalog.IssueMaintenance:
				return session.StepHostelMaintType
			case catalog.IssueWiFi:
				return session.StepHostelWiFiType
			case catalog.IssueRoomChange:
				return session.StepHostelRoomCurrent
			}
			return session.StepHostelOtherDesc
		}),
	},
	session.StepHostelMessMeal: {prompt: catalog.PromptMeal, apply: pickMeal(session.StepHostelMessDate)},
	session.StepHostelMessDate: {prompt: catalog.PromptMessDate, apply: messDate(session.StepHostelMessDesc)},
	session.StepHostelMessDesc: terminal(catalog.PromptMessDescription),
	session.StepHostelLeaveDates: {
		prompt: catalog.PromptLeaveDates,
		apply: freeText(func(d *session.Draft, dates string) session.Step {
			l := leave(d)
			l.Dates = dates
			d.Details = l
			return session.StepHostelLeaveReason
		}),
	},
	session.StepHostelLeaveReason: {
		prompt: catalog.PromptLeaveReason,
		apply: freeText(func(d *session.Draft, reason string) session.Step {
			l := leave(d)
			l.Reason = reason
			d.Details = l
			return session.StepHostelLeaveConfirm
		}),
	},
	session.StepHostelLeaveConfirm: {
		prompt: catalog.PromptLeaveConfirm,
		final:  true,
		apply: freeText(func(d *session.Draft, answer string) session.Step {
			l := leave(d)
			l.ApprovalRequest = strings.HasPrefix(strings.ToLower(answer), "y")
			d.Details = l
			d.Description = fmt.Sprintf("Leave request: %s - %s", l.Dates, l.Reason)
			return session.StepUnknown
		}),
	},
	session.StepHostelMaintType: {
		prompt: catalog.PromptMaintenanceType,
		apply: choose(catalog.MaintenanceTypes, func(d *session.Draft, kind string) session.Step {
			d.Details = session.MaintenanceDetails{Type: kind}
			return session.StepHostelMaintDesc
		}),
	},
	session.StepHostelMaintDesc: terminal(catalog.PromptMaintDescription),
	session.StepHostelWiFiType:  {prompt: catalog.PromptWiFiType, apply: pickWiFi(session.StepHostelWiFiDesc)},
	session.StepHostelWiFiDesc:  terminal(catalog.PromptWiFiDescription),
	session.StepHostelRoomCurrent: {
		prompt: catalog.PromptRoomCurrent,
		apply: freeText(func(d *session.Draft, room string) session.Step {
			r := roomChange(d)
			r.CurrentRoom = room
			d.Details = r
			return session.StepHostelRoomDesired
		}),
	},
	session.StepHostelRoomDesired: {
		prompt: catalog.PromptRoomDesired,
		apply: freeText(func(d *session.Draft, room string) session.Step {
			r := roomChange(d)
			r.DesiredRoom = room
			d.Details = r
			return session.StepHostelRoomReason
		}),
	},
	session.StepHostelRoomReason: terminal(catalog.PromptRoomReason),
	session.StepHostelOtherDesc:  terminal(catalog.PromptOtherDescription),

	session.StepCollegeIssueType: {
		prompt: catalog.PromptCollegeIssueType,
		apply: choose(catalog.CollegeIssues, func(d *session.Draft, is catalog.Issue) session.Step {
			d.SubCategory = is.Token
			switch is {
			case catalog.IssueMess:
				return session.StepCollegeMessLocation
			case catalog.IssueMaintenance:
				return session.StepCollegeMaintDesc
			case catalog.IssueWiFi:
				return session.StepCollegeWiFiType
			}
			return session.StepCollegeOtherDesc
		}),
	},
	session.StepCollegeMessLocation: {
		prompt: catalog.PromptCollegeMessLocation,
		apply: choose(catalog.CollegeMessLocations, func(d *session.Draft, loc string) session.Step {
			d.Location = loc
			return session.StepCollegeMessMeal
		}),
	},
	session.StepCollegeMessMeal:  {prompt: catalog.PromptMeal, apply: pickMeal(session.StepCollegeMessDate)},
	session.StepCollegeMessDate:  {prompt: catalog.PromptMessDate, apply: messDate(session.StepCollegeMessDesc)},
	session.StepCollegeMessDesc:  terminal(catalog.PromptMessDescription),
	session.StepCollegeMaintDesc: terminal(catalog.PromptCollegeMaintDesc),
	session.StepCollegeWiFiType:  {prompt: catalog.PromptWiFiType, apply: pickWiFi(session.StepCollegeWiFiDesc)},
	session.StepCollegeWiFiDesc:  terminal(catalog.PromptWiFiDescription),
	session.StepCollegeOtherDesc: terminal(catalog.PromptOtherDescription),
}
