package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptsRenderNumberedOptions(t *testing.T) {
	assert.Equal(t, "Welcome to SST Resolve\nPlease select a category:\n1) Hostel\n2) College", PromptMainMenu)
	assert.Equal(t, "Choose your hostel:\n1) Neeladri\n2) Velankani", PromptHostelLocation)
	assert.Equal(t, "Choose an issue type:\n1) Mess Quality Issues\n2) Maintenance / Housekeeping\n3) Wi-Fi Issues\n4) Other", PromptCollegeIssueType)
	assert.Equal(t, "Select your hostel:\n1) Neeladri\n2) Velankani\n3) None / Day Scholar", PromptRegisterHostel)
}

func TestSubcategoryLabel(t *testing.T) {
	cases := map[string]string{
		"":            "Other",
		"Mess":        "Mess Quality Issues",
		"Wi-Fi":       "Wi-Fi Issues",
		"Wi\u2011Fi":       "Wi-Fi Issues",
		"Maintenance": "Maintenance / Housekeeping",
		"Room Change": "Room Change Request",
		"Leave":       "Leave Application",
		"Other":       "Other",
		"Laundry":     "Laundry",
	}
	for in, want := range cases {
		assert.Equal(t, want, SubcategoryLabel(in), "token %q", in)
	}
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, 2, ParseChoice(" 2 "))
	assert.Equal(t, 0, ParseChoice("two"))
	assert.Equal(t, 0, ParseChoice("2abc"))
	assert.Equal(t, 0, ParseChoice("-1"))
}

func TestOption(t *testing.T) {
	v, ok := Option(Meals, 2)
	assert.True(t, ok)
	assert.Equal(t, "Lunch", v)

	_, ok = Option(Meals, 0)
	assert.False(t, ok)
	_, ok = Option(Meals, 4)
	assert.False(t, ok)
}

func TestParseRegistrationHostel(t *testing.T) {
	assert.Equal(t, "Neeladri", ParseRegistrationHostel("1"))
	assert.Equal(t, "Velankani", ParseRegistrationHostel("2"))
	assert.Equal(t, "Neeladri", ParseRegistrationHostel("I live in NEELADRI block"))
	assert.Equal(t, "Velankani", ParseRegistrationHostel("velankani"))
	assert.Equal(t, HostelUnset, ParseRegistrationHostel("3"))
	assert.Equal(t, HostelUnset, ParseRegistrationHostel("day scholar"))
}

func TestChannels(t *testing.T) {
	ch := DefaultChannels()
	assert.Equal(t, "#tickets-hostel", ch.For(Hostel))
	assert.Equal(t, "#tickets-college", ch.For(College))
	assert.Empty(t, ch.For(Category("Library")))
}
