// Package catalog holds the static menu tree: categories, issue types, option lists,
// the prompts rendered from them and the subcategory labels used on tickets.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

type Category string

const (
	Hostel  Category = "Hostel"
	College Category = "College"
)

// Issue is a selectable issue type. Token is stored on the draft, Label on the ticket.
type Issue struct {
	Token string
	Label string
}

var (
	IssueMess        = Issue{Token: "Mess", Label: "Mess Quality Issues"}
	IssueLeave       = Issue{Token: "Leave", Label: "Leave Application"}
	IssueMaintenance = Issue{Token: "Maintenance", Label: "Maintenance / Housekeeping"}
	IssueWiFi        = Issue{Token: "Wi-Fi", Label: "Wi-Fi Issues"}
	IssueRoomChange  = Issue{Token: "Room Change", Label: "Room Change Request"}
	IssueOther       = Issue{Token: "Other", Label: "Other"}
)

var (
	Categories           = []Category{Hostel, College}
	HostelLocations      = []string{"Neeladri", "Velankani"}
	CollegeMessLocations = []string{"GSR", "Uniworld", "TCB"}
	HostelIssues         = []Issue{IssueMess, IssueLeave, IssueMaintenance, IssueWiFi, IssueRoomChange, IssueOther}
	CollegeIssues        = []Issue{IssueMess, IssueMaintenance, IssueWiFi, IssueOther}
	Meals                = []string{"Breakfast", "Lunch", "Dinner"}
	MaintenanceTypes     = []string{"Plumbing", "Electrical", "Painting", "Carpenter", "Pantry Area"}
	WiFiIssues           = []string{"Internet not working", "Router problems"}
	// RegistrationHostels is what the sign-up question offers; only the first two are real hostels.
	RegistrationHostels = []string{"Neeladri", "Velankani", "None / Day Scholar"}
)

// HostelUnset is stored when the hostel answer matches no known hostel.
const HostelUnset = "NA"

// ParseChoice returns the menu number typed by the user, or 0 when text is not a number.
func ParseChoice(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Option returns the 1-based n-th entry of opts.
func Option[T any](opts []T, n int) (T, bool) {
	var zero T
	if n < 1 || n > len(opts) {
		return zero, false
	}
	return opts[n-1], true
}

// Menu renders a numbered prompt: title, then "1) a", "2) b", ...
func Menu[T any](title string, opts []T, label func(T) string) string {
	var b strings.Builder
	b.WriteString(title)
	for i, o := range opts {
		fmt.Fprintf(&b, "\n%d) %s", i+1, label(o))
	}
	return b.String()
}

func str(s string) string       { return s }
func issueLabel(i Issue) string { return i.Label }

// Prompts sent to the user. The main menu doubles as the reset target.
var (
	PromptMainMenu = Menu("Welcome to SST Resolve\nPlease select a category:", Categories,
		func(c Category) string { return string(c) })
	PromptHostelLocation      = Menu("Choose your hostel:", HostelLocations, str)
	PromptHostelIssueType     = Menu("Choose an issue type:", HostelIssues, issueLabel)
	PromptCollegeIssueType    = Menu("Choose an issue type:", CollegeIssues, issueLabel)
	PromptCollegeMessLocation = Menu("Choose your college:", CollegeMessLocations, str)
	PromptMeal                = Menu("Select meal:", Meals, str)
	PromptMaintenanceType     = Menu("Select maintenance type:", MaintenanceTypes, str)
	PromptWiFiType            = Menu("Choose the Wi-Fi issue:", WiFiIssues, str)

	PromptMessDate          = "Please enter the date (YYYY-MM-DD):"
	PromptMessDescription   = "Please describe the issue:"
	PromptLeaveDates        = "Enter leave date(s) (e.g., 2025-11-04 to 2025-11-06):"
	PromptLeaveReason       = "Enter the reason for leave:"
	PromptLeaveConfirm      = "Send for approval? (yes/no)"
	PromptMaintDescription  = "Please describe the problem:"
	PromptCollegeMaintDesc  = "Please describe the maintenance/housekeeping issue:"
	PromptWiFiDescription   = "Describe the problem (any error lights/messages):"
	PromptRoomCurrent       = "Enter your current room:"
	PromptRoomDesired       = "Enter desired room:"
	PromptRoomReason        = "Reason for change:"
	PromptOtherDescription  = "Please describe your issue:"
	PromptTicketCreated     = "✅ Your ticket has been created. We’ll update you here."
	PromptRegisterName      = "👋 Welcome to SST Resolve! Please enter your full name:"
	PromptRegisterRoom      = "🏠 Please enter your room number:"
	PromptRegisterMobile    = "📞 Please enter your mobile number:"
	PromptRegisterHostel    = Menu("Select your hostel:", RegistrationHostels, str)
	PromptRegisterCompleted = "✅ Details saved! You won’t need to fill them again."
)

// SubcategoryLabel maps a draft token to the label stored on the ticket.
// Unknown tokens pass through unchanged; an empty token is "Other".
func SubcategoryLabel(token string) string {
	if token == "" {
		return IssueOther.Label
	}
	// U+2011 non-breaking hyphen shows up when the token is pasted from the menu text.
	normalized := strings.ReplaceAll(token, "\u2011", "-")
	for _, is := range HostelIssues {
		if is.Token == normalized {
			return is.Label
		}
	}
	return token
}

// ParseRegistrationHostel resolves the lenient hostel answer: a menu number or a
// case-insensitive name fragment. Anything else is HostelUnset.
func ParseRegistrationHostel(text string) string {
	n := ParseChoice(text)
	lower := strings.ToLower(text)
	for i, h := range HostelLocations {
		if n == i+1 || strings.Contains(lower, strings.ToLower(h)) {
			return h
		}
	}
	return HostelUnset
}

// Channels maps a main category to its notification channel.
type Channels map[Category]string

// DefaultChannels mirrors the team layout: one channel per main category.
func DefaultChannels() Channels {
	return Channels{Hostel: "#tickets-hostel", College: "#tickets-college"}
}

// For returns the channel for c, or "" when c has none.
func (ch Channels) For(c Category) string {
	return ch[c]
}
