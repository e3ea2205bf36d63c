package invoice

// Action is an administrative or scheduled step applied to an invoice.
type Action string

const (
	ActionSend    Action = "send"
	ActionPay     Action = "pay"
	ActionOverdue Action = "overdue"
	ActionCancel  Action = "cancel"
)

var transitions = map[Action]map[Status]Status{
	ActionSend: {
		StatusDraft: StatusSent,
	},
	ActionPay: {
		StatusSent:    StatusPaid,
		StatusOverdue: StatusPaid,
	},
	ActionOverdue: {
		StatusSent: StatusOverdue,
	},
	ActionCancel: {
		StatusDraft:   StatusCancelled,
		StatusSent:    StatusCancelled,
		StatusOverdue: StatusCancelled,
	},
}

// Next returns the status reached by applying a to from.
func Next(from Status, a Action) (Status, bool) {
	to, ok := transitions[a][from]
	return to, ok
}

// CanModify reports whether notes and other editable fields may change.
func CanModify(inv *Invoice) bool {
	return inv.Status != StatusPaid
}

// Deletable reports whether inv may be removed.
func Deletable(inv *Invoice) bool {
	return inv.Status == StatusDraft
}
