package workflow

import "strings"

// Status is the workflow stage of a post or content item as sent on the wire.
type Status string

const (
	StatusDraft     Status = "taslak"
	StatusReview    Status = "inceleme"
	StatusApproved  Status = "onaylandi"
	StatusScheduled Status = "planlandi"
	StatusPublished Status = "yayinlandi"
	StatusRejected  Status = "rededildi"
	StatusCanceled  Status = "iptal"
	StatusQueued    Status = "kuyruk"
	StatusFailed    Status = "basarisiz"
)

// Statuses lists every known status in display order.
var Statuses = []Status{
	StatusDraft,
	StatusReview,
	StatusApproved,
	StatusScheduled,
	StatusQueued,
	StatusPublished,
	StatusRejected,
	StatusCanceled,
	StatusFailed,
}

// Color is a display tag for badges and action buttons.
type Color string

const (
	ColorGray   Color = "gray"
	ColorOrange Color = "orange"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
)

type badge struct {
	label string
	color Color
}

var badges = map[Status]badge{
	StatusDraft:     {"Taslak", ColorGray},
	StatusReview:    {"İnceleme Bekliyor", ColorOrange},
	StatusApproved:  {"Onaylandı", ColorBlue},
	StatusScheduled: {"Planlandı", ColorPurple},
	StatusPublished: {"Yayınlandı", ColorGreen},
	StatusRejected:  {"Red Edildi", ColorRed},
	StatusCanceled:  {"İptal Edildi", ColorGray},
	StatusQueued:    {"Kuyruğa Alındı", ColorYellow},
	StatusFailed:    {"Başarısız", ColorRed},
}

// ParseStatus normalizes s and reports whether it is a known status.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.IsValid()
}

func (s Status) IsValid() bool {
	_, ok := badges[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// Label is the badge text; unknown statuses render as their raw value.
func (s Status) Label() string {
	if b, ok := badges[s]; ok {
		return b.label
	}
	return string(s)
}

func (s Status) Color() Color {
	if b, ok := badges[s]; ok {
		return b.color
	}
	return ColorGray
}

// Terminal reports whether publishing has settled for an item in this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusPublished, StatusFailed, StatusCanceled, StatusRejected:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps the identity endpoint's role field; anything unrecognized
// is treated as a standard user.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

func (r Role) Privileged() bool {
	return r == RoleAdmin
}
