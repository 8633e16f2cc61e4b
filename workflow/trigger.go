package workflow

type EventKind int

const (
	EventCreated EventKind = iota + 1
	EventEdited
	EventStatusChanged
	EventOverdue
)

type Template string

const (
	TemplateNewTask       Template = "NewTask"
	TemplateTaskUpdated   Template = "TaskUpdated"
	TemplateTaskStarted   Template = "TaskStarted"
	TemplateTaskCompleted Template = "TaskCompleted"
	TemplateTaskOverdue   Template = "TaskOverdue"
)

type RecipientKind int

const (
	RecipientDeveloper RecipientKind = iota + 1
	RecipientTeamMembers
)

// Recipient selects who receives a notification without resolving users.
type Recipient struct {
	Kind RecipientKind
	Team string
}

type Trigger struct {
	Recipient Recipient
	Template  Template
}

func developer() Recipient {
	return Recipient{Kind: RecipientDeveloper}
}

func teamMembers(team string) Recipient {
	return Recipient{Kind: RecipientTeamMembers, Team: team}
}

// DecideNotifications returns the notifications an event should fire. Rules
// are exact matches on the prior/next pair, so prior == next fires nothing.
func DecideNotifications(team string, prior, next Status, kind EventKind) []Trigger {
	var triggers []Trigger
	switch kind {
	case EventCreated:
		triggers = append(triggers, Trigger{Recipient: developer(), Template: TemplateNewTask})
	case EventEdited:
		triggers = append(triggers, Trigger{Recipient: developer(), Template: TemplateTaskUpdated})
	case EventStatusChanged:
		if prior == StatusNotStarted && next == StatusInProgress {
			triggers = append(triggers, Trigger{Recipient: teamMembers(team), Template: TemplateTaskStarted})
		}
		if prior == StatusInProgress && next == StatusDone {
			triggers = append(triggers, Trigger{Recipient: developer(), Template: TemplateTaskCompleted})
		}
	case EventOverdue:
		if next != StatusDone {
			triggers = append(triggers,
				Trigger{Recipient: developer(), Template: TemplateTaskOverdue},
				Trigger{Recipient: teamMembers(team), Template: TemplateTaskOverdue},
			)
		}
	}
	return triggers
}
