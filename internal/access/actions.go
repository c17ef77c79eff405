package access

// Action is a gated dashboard control.
type Action int

const (
	ActionSendReminder Action = iota + 1
	ActionSendCustomReminder
	ActionSkipTurn
	ActionAdvanceTurn
	ActionRefresh
)

// Actions lists every action in display order.
var Actions = []Action{
	ActionAdvanceTurn,
	ActionSkipTurn,
	ActionSendReminder,
	ActionSendCustomReminder,
	ActionRefresh,
}

func (a Action) String() string {
	switch a {
	case ActionSendReminder:
		return "send-reminder"
	case ActionSendCustomReminder:
		return "send-custom-reminder"
	case ActionSkipTurn:
		return "skip-turn"
	case ActionAdvanceTurn:
		return "advance-turn"
	case ActionRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Label is the button caption.
func (a Action) Label() string {
	switch a {
	case ActionSendReminder:
		return "Send Reminder"
	case ActionSendCustomReminder:
		return "Send Custom Reminder"
	case ActionSkipTurn:
		return "Skip Turn"
	case ActionAdvanceTurn:
		return "Advance Turn"
	case ActionRefresh:
		return "Refresh"
	default:
		return "Unknown"
	}
}

// Mutating reports whether the action changes rotation state server-side.
func (a Action) Mutating() bool {
	switch a {
	case ActionSendReminder, ActionSendCustomReminder, ActionSkipTurn, ActionAdvanceTurn:
		return true
	default:
		return false
	}
}

// actionRoles is total over Actions; an action missing from the map is
// denied for everyone.
var actionRoles = map[Action]RoleSet{
	ActionSendReminder:       operatorRoles,
	ActionSendCustomReminder: operatorRoles,
	ActionSkipTurn:           operatorRoles,
	ActionAdvanceTurn:        operatorRoles,
	ActionRefresh:            allRoles,
}

// AllowedRoles returns the allow-list for an action.
func AllowedRoles(a Action) RoleSet {
	return actionRoles[a]
}

// Can reports whether role may use action.
func Can(role Role, a Action) bool {
	return actionRoles[a].Contains(role)
}

// VisibleActions returns the actions a role may see, in display order.
func VisibleActions(role Role) []Action {
	var visible []Action
	for _, a := range Actions {
		if Can(role, a) {
			visible = append(visible, a)
		}
	}
	return visible
}
