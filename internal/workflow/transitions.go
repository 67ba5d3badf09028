package workflow

import (
	"errors"
	"fmt"
)

var ErrTransitionNotAllowed = errors.New("workflow: transition not allowed")

// Transition is one action a caller may take from a given status.
type Transition struct {
	To    Status `json:"to"`
	Label string `json:"label"`
	Color Color  `json:"color"`
}

var (
	toReview   = Transition{StatusReview, "İncelemeye Gönder", ColorOrange}
	toApproved = Transition{StatusApproved, "Onayla", ColorBlue}
	toSchedule = Transition{StatusScheduled, "Planla", ColorPurple}
	toPublish  = Transition{StatusPublished, "Yayınla", ColorGreen}
	toReject   = Transition{StatusRejected, "Reddet", ColorRed}
	toCancel   = Transition{StatusCanceled, "İptal Et", ColorGray}
	toDraft    = Transition{StatusDraft, "Taslağa Döndür", ColorGray}
	toEdit     = Transition{StatusDraft, "Düzenle", ColorGray}
	toRestart  = Transition{StatusDraft, "Yeniden Başlat", ColorGray}
)

var privilegedTable = map[Status][]Transition{
	StatusDraft:     {toReview, toApproved, toSchedule, toCancel},
	StatusReview:    {toApproved, toReject, toDraft},
	StatusApproved:  {toSchedule, toPublish, toDraft},
	StatusScheduled: {toPublish, toCancel, toDraft},
	StatusRejected:  {toDraft, toCancel},
	StatusCanceled:  {toRestart},
}

var standardTable = map[Status][]Transition{
	StatusDraft:    {toReview, toCancel},
	StatusRejected: {toEdit, toCancel},
	StatusCanceled: {toRestart},
}

// Transitions returns the actions available from status, in display order.
// Statuses without an entry for the caller's table yield nil. The returned
// slice is a copy.
func Transitions(status Status, privileged bool) []Transition {
	table := standardTable
	if privileged {
		table = privilegedTable
	}
	entry := table[status]
	if len(entry) == 0 {
		return nil
	}
	return append([]Transition(nil), entry...)
}

// TransitionsFor is Transitions keyed by role.
func TransitionsFor(status Status, role Role) []Transition {
	return Transitions(status, role.Privileged())
}

// Allowed reports whether to is offered from from for the caller.
func Allowed(from, to Status, privileged bool) bool {
	for _, t := range Transitions(from, privileged) {
		if t.To == to {
			return true
		}
	}
	return false
}

// Check is Allowed with an error suitable for returning to the user.
func Check(from, to Status, privileged bool) error {
	if Allowed(from, to, privileged) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
}
