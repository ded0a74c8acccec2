package outcome

// Action tells the transport what to do with a processed message.
type Action int

const (
	Acknowledge Action = iota
	Redeliver
)

func (a Action) String() string {
	if a == Acknowledge {
		return "acknowledge"
	}
	return "redeliver"
}

// Classify maps a result to its batch action. Anything that is not a success
// is redelivered; unknown kinds are treated as unrecoverable.
func Classify(r Result) Action {
	if r.Kind == Success {
		return Acknowledge
	}
	return Redeliver
}

// NeedsBackoff reports whether the backoff schedule should be consulted.
func NeedsBackoff(r Result) bool {
	return r.Kind == RecoverableFailure
}
