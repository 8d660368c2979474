package models

// Execution is the pacing policy for a workflow's commands.
type Execution string

const (
	ExecutionSerial     Execution = "serial"
	ExecutionConcurrent Execution = "concurrent"
)

// ApplicationContext is the application event an application trigger fires on.
type ApplicationContext string

const (
	ContextLaunched  ApplicationContext = "launched"
	ContextClosed    ApplicationContext = "closed"
	ContextFrontmost ApplicationContext = "frontmost"
)

// ApplicationTrigger fires a workflow when an application changes state.
type ApplicationTrigger struct {
	BundleIdentifier string               `yaml:"bundle_identifier" json:"bundle_identifier"`
	Contexts         []ApplicationContext `yaml:"contexts" json:"contexts"`
}

// Fires reports whether the trigger listens to ctx.
func (t ApplicationTrigger) Fires(ctx ApplicationContext) bool {
	for _, c := range t.Contexts {
		if c == ctx {
			return true
		}
	}
	return false
}

// Trigger is either a keyboard sequence, a set of application triggers, or nothing.
type Trigger struct {
	Keyboard    []KeyShortcut        `yaml:"keyboard,omitempty" json:"keyboard,omitempty"`
	Application []ApplicationTrigger `yaml:"application,omitempty" json:"application,omitempty"`
}

// WorkflowMetadata carries the extra launch bookkeeping of a workflow.
type WorkflowMetadata struct {
	RunWhenApplicationsAreLaunched []string `yaml:"run_when_launched,omitempty" json:"run_when_launched,omitempty"`
}

// Workflow is an ordered list of commands with a trigger and an execution mode.
type Workflow struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Enabled   bool             `json:"enabled"`
	Execution Execution        `json:"execution"`
	Trigger   *Trigger         `json:"trigger,omitempty"`
	Commands  []Command        `json:"commands"`
	Metadata  WorkflowMetadata `json:"metadata"`
}

// KeySequence returns the keyboard trigger, or nil.
func (w *Workflow) KeySequence() []KeyShortcut {
	if w.Trigger == nil {
		return nil
	}
	return w.Trigger.Keyboard
}

// IsControl reports whether the workflow contains a built-in that can
// re-enable a disabled engine.
func (w *Workflow) IsControl() bool {
	for _, cmd := range w.Commands {
		if b, ok := cmd.(BuiltInCommand); ok && b.ReEnables() {
			return true
		}
	}
	return false
}

// Rule restricts a group to a set of frontmost applications and/or an expression.
type Rule struct {
	BundleIdentifiers []string `yaml:"bundle_identifiers,omitempty" json:"bundle_identifiers,omitempty"`
	When              string   `yaml:"when,omitempty" json:"when,omitempty"`
}

// Group is an ordered collection of workflows.
type Group struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color,omitempty"`
	Symbol    string     `json:"symbol,omitempty"`
	Rule      *Rule      `json:"rule,omitempty"`
	Workflows []Workflow `json:"workflows"`
}

// FindWorkflow looks a workflow up by id, then by name.
func FindWorkflow(groups []Group, idOrName string) (*Workflow, *Group) {
	for gi := range groups {
		for wi := range groups[gi].Workflows {
			if groups[gi].Workflows[wi].ID == idOrName {
				return &groups[gi].Workflows[wi], &groups[gi]
			}
		}
	}
	for gi := range groups {
		for wi := range groups[gi].Workflows {
			if groups[gi].Workflows[wi].Name == idOrName {
				return &groups[gi].Workflows[wi], &groups[gi]
			}
		}
	}
	return nil, nil
}
