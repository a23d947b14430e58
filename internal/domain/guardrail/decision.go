package guardrail

// Reason is an enumerated refusal reason code, used downstream to pick the
// user-facing refusal message.
type Reason string

// Refusal reason constants.
const (
	// ReasonCrimeAssistance covers requests for help committing an offence.
	ReasonCrimeAssistance Reason = "crime_assistance"
	// ReasonEnforcementEvasion covers requests to evade police or process.
	ReasonEnforcementEvasion Reason = "enforcement_evasion"
	// ReasonEvidenceTampering covers evidence destruction or forgery.
	ReasonEvidenceTampering Reason = "evidence_tampering"
	// ReasonDisclaimerCircumvention covers attempts to strip the system's own disclaimer.
	ReasonDisclaimerCircumvention Reason = "disclaimer_circumvention"
	// ReasonClassifierError is returned when classification itself failed
	// and the gate is configured fail-closed.
	ReasonClassifierError Reason = "classifier_error"
)

// Decision is the gate's verdict for one query. Derived per request,
// never persisted or cached.
type Decision struct {
	allowed bool
	reason  Reason
}

// Allow passes the query through to retrieval.
func Allow() Decision {
	return Decision{allowed: true}
}

// Refuse short-circuits retrieval with a reason code.
func Refuse(reason Reason) Decision {
	return Decision{reason: reason}
}

// Allowed reports whether retrieval may proceed.
func (d Decision) Allowed() bool { return d.allowed }

// Reason returns the refusal reason code; empty when allowed.
func (d Decision) Reason() Reason { return d.reason }
