package pipeline

// Stage is a step of the submission state machine.
type Stage int

const (
	StageReceived Stage = iota
	StageRateChecked
	StageFiltered
	StagePublishedPending
	StageRecorded
	StageRejected
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageRateChecked:
		return "rate_checked"
	case StageFiltered:
		return "filtered"
	case StagePublishedPending:
		return "published_pending"
	case StageRecorded:
		return "recorded"
	case StageRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type OutcomeKind int

const (
	Accepted OutcomeKind = iota + 1
	Rejected
	NeedsInput
)

func (k OutcomeKind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case NeedsInput:
		return "needs_input"
	default:
		return "unknown"
	}
}

// Reason explains a Rejected or NeedsInput outcome.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonRateLimited
	ReasonBlacklisted
	ReasonWhitelistUnsatisfied
	ReasonInvalidTarget
	ReasonNoTarget
	ReasonNoModChannel
)

func (r Reason) String() string {
	switch r {
	case ReasonRateLimited:
		return "rate_limited"
	case ReasonBlacklisted:
		return "blacklisted"
	case ReasonWhitelistUnsatisfied:
		return "whitelist_unsatisfied"
	case ReasonInvalidTarget:
		return "invalid_target"
	case ReasonNoTarget:
		return "no_target"
	case ReasonNoModChannel:
		return "no_mod_channel"
	default:
		return ""
	}
}

// Outcome is the result of Submit, Reply or Report. Stage is the last state
// reached; for rejections RejectedAt names the step that refused.
type Outcome struct {
	Kind       OutcomeKind
	Stage      Stage
	RejectedAt Stage
	Reason     Reason
	// Message is the German text shown to the member.
	Message string

	CorrelationID string
	ChannelID     string
	MessageID     string
	Content       string
	Hints         []string
	PII           bool
	Crisis        bool
	ThreadOpened  bool
}

func (o *Outcome) Accepted() bool {
	return o.Kind == Accepted
}

func rejected(at Stage, reason Reason, message string) *Outcome {
	return &Outcome{
		Kind:       Rejected,
		Stage:      StageRejected,
		RejectedAt: at,
		Reason:     reason,
		Message:    message,
	}
}

func needsInput(reason Reason, message string) *Outcome {
	return &Outcome{
		Kind:       NeedsInput,
		Stage:      StageRejected,
		RejectedAt: StageReceived,
		Reason:     reason,
		Message:    message,
	}
}
