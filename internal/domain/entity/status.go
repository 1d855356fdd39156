package entity

import "strings"

// EnvelopeStatus is the canonical envelope lifecycle state
type EnvelopeStatus string

const (
	StatusDraft     EnvelopeStatus = "DRAFT"
	StatusSent      EnvelopeStatus = "SENT"
	StatusCompleted EnvelopeStatus = "COMPLETED"
	StatusVoided    EnvelopeStatus = "VOIDED"
	StatusExpired   EnvelopeStatus = "EXPIRED"
)

// IsTerminal reports whether no further transitions are expected
func (s EnvelopeStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusVoided, StatusExpired:
		return true
	}
	return false
}

// NormalizeRemoteStatus maps the provider's status vocabulary to the canonical
// envelope state. The mapping is total: unrecognized values fall back to DRAFT
// rather than failing, and input case is ignored.
func NormalizeRemoteStatus(remote string) EnvelopeStatus {
	switch strings.ToUpper(remote) {
	case "PENDING", "DRAFT":
		return StatusDraft
	case "SENT", "IN_PROGRESS":
		return StatusSent
	case "COMPLETED", "SIGNED":
		return StatusCompleted
	case "CANCELLED", "VOIDED":
		return StatusVoided
	case "EXPIRED":
		return StatusExpired
	default:
		return StatusDraft
	}
}
