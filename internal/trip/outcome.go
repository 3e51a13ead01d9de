package trip

// Outcome is how a run ended, exactly one is produced per run.
type Outcome int

const (
	// the run was cut short by an error outside the trip log itself
	// (config, network probe, state file)
	Aborted Outcome = iota
	NotAWeekday
	Delayed
	NoConnection
	DisallowedNetwork
	CredentialUnavailable
	TransportError
	FormRejected
	Succeeded
)

func (o Outcome) String() string {
	switch o {
	case NotAWeekday:
		return "not_a_weekday"
	case Delayed:
		return "delayed"
	case NoConnection:
		return "no_connection"
	case DisallowedNetwork:
		return "disallowed_network"
	case CredentialUnavailable:
		return "credential_unavailable"
	case TransportError:
		return "transport_error"
	case FormRejected:
		return "form_rejected"
	case Succeeded:
		return "succeeded"
	}
	return "aborted"
}

// Attempted reports whether the trip form was actually submitted.
func (o Outcome) Attempted() bool {
	return o == Succeeded || o == FormRejected
}

// Process exit codes.
const (
	ExitSuccess = 0
	ExitSkipped = 1
	ExitFailed  = 2
)

func (o Outcome) ExitCode() int {
	switch o {
	case Succeeded:
		return ExitSuccess
	case NotAWeekday, Delayed, NoConnection, DisallowedNetwork:
		return ExitSkipped
	}
	return ExitFailed
}
