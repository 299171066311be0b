package models

type Kind string

const (
	NetworkKind Kind = "network"
	HostKind    Kind = "host"
)

// State is the classification of a desired resource against the target.
type State int

const (
	MissingState State = iota
	PresentKeepState
	PresentReplaceState
)

func (s State) String() string {
	switch s {
	case MissingState:
		return "missing"
	case PresentKeepState:
		return "present"
	case PresentReplaceState:
		return "replace"
	}
	return ""
}

func (s State) MarshalYAML() (any, error) {
	return s.String(), nil
}

// Outcome is the terminal result of a decision. PendingOutcome marks a
// resource whose handling aborted the pass, or one that Plan leaves to be
// done.
type Outcome int

const (
	PendingOutcome Outcome = iota
	CreatedOutcome
	SkippedExistsOutcome
	RecreatedOutcome
	FailedMissingFieldOutcome
)

func (o Outcome) String() string {
	switch o {
	case PendingOutcome:
		return "pending"
	case CreatedOutcome:
		return "created"
	case SkippedExistsOutcome:
		return "already-exists"
	case RecreatedOutcome:
		return "recreated"
	case FailedMissingFieldOutcome:
		return "failed-missing-field"
	}
	return ""
}

func (o Outcome) MarshalYAML() (any, error) {
	return o.String(), nil
}

type Decision struct {
	Kind    Kind    `yaml:"kind"`
	Name    string  `yaml:"name"`
	State   State   `yaml:"state"`
	Outcome Outcome `yaml:"outcome"`
}

type Report struct {
	Networks []Decision `yaml:"networks"`
	Hosts    []Decision `yaml:"hosts"`
}
