package appointment

import "strings"

// Op is the concrete appointment operation detected from a message.
type Op string

const (
	OpCreate  Op = "create"
	OpList    Op = "list"
	OpUpdate  Op = "update"
	OpCancel  Op = "cancel"
	OpGeneral Op = "general"
	OpNone    Op = ""
)

var (
	cancelKeywords = []string{"cancel", "delete", "remove appointment", "cancel appointment"}
	updateKeywords = []string{"reschedule", "change", "move", "update", "modify appointment"}
	listKeywords   = []string{
		"my appointments", "my appointment", "list appointments", "list appointment",
		"show appointments", "show appointment", "show my", "list my",
		"view appointments", "view appointment", "view my",
		"upcoming appointments", "appointment history", "see my appointments",
		"all appointments", "next appointment", "check my appointments",
		"display appointments", "get my appointments", "what appointments",
	}
	createKeywords = []string{
		"book", "schedule", "make appointment", "need appointment",
		"want appointment", "see a doctor", "consultation", "check-up",
		"available", "time slot",
	}
)

// DetectOp classifies which appointment operation the message asks for.
// Cancel and update win over list and create because they are more specific.
func DetectOp(message string) Op {
	lower := strings.ToLower(message)

	for _, kw := range cancelKeywords {
		if strings.Contains(lower, kw) {
			return OpCancel
		}
	}
	for _, kw := range updateKeywords {
		if strings.Contains(lower, kw) {
			return OpUpdate
		}
	}
	for _, kw := range listKeywords {
		if strings.Contains(lower, kw) {
			return OpList
		}
	}
	for _, kw := range createKeywords {
		if strings.Contains(lower, kw) {
			return OpCreate
		}
	}
	if strings.Contains(lower, "appointment") {
		return OpGeneral
	}
	return OpNone
}

// extractAppointmentID pulls the first number out of a message, with or
// without a leading "#". Returns 0 when none is present.
func extractAppointmentID(message string) int64 {
	var id int64
	inNumber := false
	for _, r := range message {
		if r >= '0' && r <= '9' {
			inNumber = true
			id = id*10 + int64(r-'0')
			continue
		}
		if inNumber {
			break
		}
	}
	return id
}
