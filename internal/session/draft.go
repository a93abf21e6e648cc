package session

import (
	"encoding/json"
	"fmt"

	"github.com/sst-resolve/resolve-bot/internal/catalog"
)

// DetailsKind tags the concrete Details type for storage.
type DetailsKind string

const (
	KindMess        DetailsKind = "mess"
	KindLeave       DetailsKind = "leave"
	KindMaintenance DetailsKind = "maintenance"
	KindWiFi        DetailsKind = "wifi"
	KindRoomChange  DetailsKind = "room_change"
)

// Details is the issue-specific part of a draft. Implementations are value types so a
// copied Draft never aliases another draft's details.
type Details interface {
	Kind() DetailsKind
}

type MessDetails struct {
	Meal string `json:"meal,omitempty"`
	Date string `json:"date,omitempty"`
}

type LeaveDetails struct {
	Dates           string `json:"leave_dates,omitempty"`
	Reason          string `json:"reason,omitempty"`
	ApprovalRequest bool   `json:"approval_request"`
}

type MaintenanceDetails struct {
	Type string `json:"maintenance_type,omitempty"`
}

type WiFiDetails struct {
	Issue string `json:"wifi_issue,omitempty"`
}

type RoomChangeDetails struct {
	CurrentRoom string `json:"current_room,omitempty"`
	DesiredRoom string `json:"desired_room,omitempty"`
}

func (MessDetails) Kind() DetailsKind        { return KindMess }
func (LeaveDetails) Kind() DetailsKind       { return KindLeave }
func (MaintenanceDetails) Kind() DetailsKind { return KindMaintenance }
func (WiFiDetails) Kind() DetailsKind        { return KindWiFi }
func (RoomChangeDetails) Kind() DetailsKind  { return KindRoomChange }

// Draft is the ticket being assembled across steps.
type Draft struct {
	MainCategory catalog.Category
	Location     string
	SubCategory  string
	Description  string
	Details      Details
}

type draftJSON struct {
	MainCategory catalog.Category `json:"main_category,omitempty"`
	Location     string           `json:"location,omitempty"`
	SubCategory  string           `json:"sub_category,omitempty"`
	Description  string           `json:"description,omitempty"`
	DetailsKind  DetailsKind      `json:"details_kind,omitempty"`
	Details      json.RawMessage  `json:"details,omitempty"`
}

func (d Draft) MarshalJSON() ([]byte, error) {
	out := draftJSON{
		MainCategory: d.MainCategory,
		Location:     d.Location,
		SubCategory:  d.SubCategory,
		Description:  d.Description,
	}
	if d.Details != nil {
		raw, err := json.Marshal(d.Details)
		if err != nil {
			return nil, err
		}
		out.DetailsKind = d.Details.Kind()
		out.Details = raw
	}
	return json.Marshal(out)
}

func (d *Draft) UnmarshalJSON(b []byte) error {
	var in draftJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*d = Draft{
		MainCategory: in.MainCategory,
		Location:     in.Location,
		SubCategory:  in.SubCategory,
		Description:  in.Description,
	}
	if in.DetailsKind == "" {
		return nil
	}
	det, err := decodeDetails(in.DetailsKind, in.Details)
	if err != nil {
		return err
	}
	d.Details = det
	return nil
}

func decodeDetails(kind DetailsKind, raw json.RawMessage) (Details, error) {
	var err error
	switch kind {
	case KindMess:
		var v MessDetails
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindLeave:
		var v LeaveDetails
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindMaintenance:
		var v MaintenanceDetails
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindWiFi:
		var v WiFiDetails
		err = json.Unmarshal(raw, &v)
		return v, err
	case KindRoomChange:
		var v RoomChangeDetails
		err = json.Unmarshal(raw, &v)
		return v, err
	}
	return nil, fmt.Errorf("unknown details kind %q", kind)
}

// DetailsMap flattens the draft details into the object stored as the ticket's
// details column. It returns an empty map when the draft has no details.
func (d Draft) DetailsMap() (map[string]any, error) {
	out := map[string]any{}
	if d.Details == nil {
		return out, nil
	}
	raw, err := json.Marshal(d.Details)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
