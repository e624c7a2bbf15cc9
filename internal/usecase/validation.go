package usecase

import (
	"strings"

	"github.com/craftlane/fulfillment/internal/domain/model"
)

// ValidateOrderNumber checks the human-facing order number format:
// 4 to 32 characters, uppercase letters, digits and dashes only.
func ValidateOrderNumber(number string) bool {
	if len(number) < 4 || len(number) > 32 {
		return false
	}
	for _, r := range number {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

// ValidateEmail applies a minimal shape check; real address verification is
// the mail provider's job.
func ValidateEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\n")
}

// ValidateUrgency reports whether the level belongs to the known set.
func ValidateUrgency(level model.UrgencyLevel) bool {
	switch level {
	case model.UrgencyNormal, model.UrgencyExpedited, model.UrgencyRush, model.UrgencyEmergency:
		return true
	}
	return false
}

// ValidateDecision reports whether the decision belongs to the known set.
func ValidateDecision(decision model.ApprovalDecision) bool {
	return decision == model.DecisionApprove || decision == model.DecisionReject
}
