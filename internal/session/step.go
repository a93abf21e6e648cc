package session

// Step is a point in the conversation. The zero value is StepUnknown, which the
// conversation engine treats as "reset to the main menu".
type Step uint8

const (
	StepUnknown Step = iota
	StepMain

	StepHostelLocation
	StepHostelIssueType
	StepHostelMessMeal
	StepHostelMessDate
	StepHostelMessDesc
	StepHostelLeaveDates
	StepHostelLeaveReason
	StepHostelLeaveConfirm
	StepHostelMaintType
	StepHostelMaintDesc
	StepHostelWiFiType
	StepHostelWiFiDesc
	StepHostelRoomCurrent
	StepHostelRoomDesired
	StepHostelRoomReason
	StepHostelOtherDesc

	StepCollegeIssueType
	StepCollegeMessLocation
	StepCollegeMessMeal
	StepCollegeMessDate
	StepCollegeMessDesc
	StepCollegeMaintDesc
	StepCollegeWiFiType
	StepCollegeWiFiDesc
	StepCollegeOtherDesc

	// StepCount is the number of defined steps, StepUnknown included.
	StepCount
)

var stepNames = [StepCount]string{
	StepUnknown:             "unknown",
	StepMain:                "main",
	StepHostelLocation:      "hostel_location",
	StepHostelIssueType:     "hostel_issue_type",
	StepHostelMessMeal:      "hostel_mess_meal",
	StepHostelMessDate:      "hostel_mess_date",
	StepHostelMessDesc:      "hostel_mess_desc",
	StepHostelLeaveDates:    "hostel_leave_dates",
	StepHostelLeaveReason:   "hostel_leave_reason",
	StepHostelLeaveConfirm:  "hostel_leave_confirm",
	StepHostelMaintType:     "hostel_maint_type",
	StepHostelMaintDesc:     "hostel_maint_desc",
	StepHostelWiFiType:      "hostel_wifi_type",
	StepHostelWiFiDesc:      "hostel_wifi_desc",
	StepHostelRoomCurrent:   "hostel_room_current",
	StepHostelRoomDesired:   "hostel_room_desired",
	StepHostelRoomReason:    "hostel_room_reason",
	StepHostelOtherDesc:     "hostel_other_desc",
	StepCollegeIssueType:    "college_issue_type",
	StepCollegeMessLocation: "college_mess_location",
	StepCollegeMessMeal:     "college_mess_meal",
	StepCollegeMessDate:     "college_mess_date",
	StepCollegeMessDesc:     "college_mess_desc",
	StepCollegeMaintDesc:    "college_maint_desc",
	StepCollegeWiFiType:     "college_wifi_type",
	StepCollegeWiFiDesc:     "college_wifi_desc",
	StepCollegeOtherDesc:    "college_other_desc",
}

func (s Step) String() string {
	if s >= StepCount {
		return stepNames[StepUnknown]
	}
	return stepNames[s]
}

// ParseStep maps a stored step name back to a Step; unknown names give StepUnknown.
func ParseStep(name string) Step {
	for i, n := range stepNames {
		if n == name {
			return Step(i)
		}
	}
	return StepUnknown
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	*s = ParseStep(string(b))
	return nil
}
