package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bdang10/Carely-AI/internal/appointments"
	"github.com/bdang10/Carely-AI/internal/routing"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

const systemPrompt = `You are an appointment management agent for Carely Healthcare.

Your capabilities:
1. Book appointments - schedule new appointments with doctors
2. List appointments - show the patient's upcoming and past appointments
3. Cancel appointments - cancel existing appointments by ID
4. Reschedule appointments - modify appointment times and details
5. Show available slots - display open time windows

Each appointment booking is INDEPENDENT. Do not assume the patient wants the
same doctor as a previous appointment unless they say so. If they do not name
a doctor, ask which one they want.

Guidelines:
- Be conversational, friendly, and helpful
- Ask clarifying questions when booking details are missing
- Confirm before cancelling
- Default to 30-minute appointments unless specified
- Patients can reference appointments by their ID number (e.g. "appointment #5")

CRITICAL: to book a new appointment you MUST call the book_appointment
function once you have the doctor, date/time, and reason. The appointment is
only created when you call the function. Never claim an appointment is booked
without calling it.

For other operations, include exactly one JSON object in your reply:

Show available slots:
{"action": "show_slots", "doctor_name": "Dr. Sarah Johnson"}

Reschedule:
{"action": "update_appointment", "appointment_id": 5, "updates": {"scheduled_time": "2026-09-12T15:00:00"}}

Cancel:
{"action": "cancel_appointment", "appointment_id": 5}`

const bookingToolSchema = `{
	"type": "object",
	"properties": {
		"doctor_name": {"type": "string", "description": "Full name of the doctor, e.g. 'Dr. Michael Chen'"},
		"scheduled_time": {"type": "string", "description": "Appointment date and time in ISO format, e.g. '2026-09-12T10:00:00'"},
		"reason": {"type": "string", "description": "Reason for the appointment"},
		"appointment_type": {"type": "string", "enum": ["consultation", "follow-up", "emergency", "check-up"]},
		"is_virtual": {"type": "boolean"},
		"duration_minutes": {"type": "integer", "description": "Duration in minutes (default 30)"}
	},
	"required": ["doctor_name", "scheduled_time", "reason"]
}`

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Store is the persistence surface the agent needs. appointments.Repository
// implements it.
type Store interface {
	Create(ctx context.Context, req appointments.CreateAppointmentRequest) (*appointments.Appointment, error)
	ListForPatient(ctx context.Context, patientID int64, limit int) ([]appointments.Appointment, error)
	Cancel(ctx context.Context, patientID, appointmentID int64) (*appointments.Appointment, error)
	Update(ctx context.Context, patientID, appointmentID int64, req appointments.UpdateAppointmentRequest) (*appointments.Appointment, error)
}

// BookingDetails are the arguments the model supplies when booking.
type BookingDetails struct {
	DoctorName      string `json:"doctor_name"`
	ScheduledTime   string `json:"scheduled_time"`
	Reason          string `json:"reason"`
	AppointmentType string `json:"appointment_type"`
	IsVirtual       bool   `json:"is_virtual"`
	DurationMinutes int    `json:"duration_minutes"`
}

// UpdateFields mirrors the reschedule payload the model emits. Times arrive as
// strings because the model omits timezone offsets.
type UpdateFields struct {
	ScheduledTime   string  `json:"scheduled_time,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	IsVirtual       *bool   `json:"is_virtual,omitempty"`
}

// Action is the structured side effect attached to a reply, when one happened.
type Action struct {
	Action        string                     `json:"action"`
	AppointmentID int64                      `json:"appointment_id,omitempty"`
	DoctorName    string                     `json:"doctor_name,omitempty"`
	Details       *BookingDetails            `json:"appointment_details,omitempty"`
	Updates       *UpdateFields              `json:"updates,omitempty"`
	Appointments  []appointments.Appointment `json:"appointments,omitempty"`
	Slots         []Slot                     `json:"slots,omitempty"`
	Success       bool                       `json:"success"`
	Error         string                     `json:"error,omitempty"`
}

// Agent handles appointment operations through conversation. List and cancel
// with an explicit ID are answered directly from the store; everything else
// goes through the model, which books via function calling.
type Agent struct {
	client chatClient
	store  Store
	model  string
	now    func() time.Time
	logger *logging.Logger
}

// Options tunes the agent.
type Options struct {
	Model string
	Now   func() time.Time
}

// New builds the appointment agent.
func New(client chatClient, store Store, logger *logging.Logger, opts Options) *Agent {
	if client == nil {
		panic("appointment: chat client cannot be nil")
	}
	if store == nil {
		panic("appointment: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Agent{
		client: client,
		store:  store,
		model:  opts.Model,
		now:    opts.Now,
		logger: logger.Component("agents.appointment"),
	}
}

// Process answers an appointment-related message for the patient.
func (a *Agent) Process(ctx context.Context, patientID int64, message string, history []routing.Turn) (string, *Action, error) {
	op := DetectOp(message)

	if op == OpList {
		return a.listAppointments(ctx, patientID)
	}
	if op == OpCancel {
		if id := extractAppointmentID(message); id > 0 {
			return a.cancelAppointment(ctx, patientID, id)
		}
	}

	return a.converse(ctx, patientID, message, history)
}

func (a *Agent) converse(ctx context.Context, patientID int64, message string, history []routing.Turn) (string, *Action, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt + "\n\nCurrent date and time: " + a.now().Format("2006-01-02 15:04:05")},
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        "book_appointment",
					Description: "Book a NEW medical appointment. The patient must specify which doctor they want for THIS appointment.",
					Parameters:  json.RawMessage(bookingToolSchema),
				},
			},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", nil, fmt.Errorf("appointment: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("appointment: chat completion returned no choices")
	}

	choice := resp.Choices[0].Message
	reply := strings.TrimSpace(choice.Content)

	// Function calling is the preferred booking path.
	for _, call := range choice.ToolCalls {
		if call.Function.Name != "book_appointment" {
			continue
		}
		var details BookingDetails
		if err := json.Unmarshal([]byte(call.Function.Arguments), &details); err != nil {
			a.logger.Warn("unparseable booking arguments", "error", err)
			continue
		}
		return a.bookAppointment(ctx, patientID, reply, details)
	}

	// Fallback: some replies carry the action as inline JSON.
	if action := extractAction(reply); action != nil {
		return a.applyAction(ctx, patientID, reply, action)
	}
	return reply, nil, nil
}

func (a *Agent) bookAppointment(ctx context.Context, patientID int64, reply string, details BookingDetails) (string, *Action, error) {
	scheduled, err := parseScheduledTime(details.ScheduledTime)
	if err != nil {
		action := &Action{Action: "book_appointment", Details: &details, Error: err.Error()}
		return "I couldn't understand the requested appointment time. Could you rephrase it, for example \"next Friday at 10am\"?", action, nil
	}

	created, err := a.store.Create(ctx, appointments.CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorName:      details.DoctorName,
		AppointmentType: details.AppointmentType,
		ScheduledTime:   scheduled,
		DurationMinutes: details.DurationMinutes,
		Reason:          details.Reason,
		IsVirtual:       details.IsVirtual,
	})
	if err != nil {
		return "", nil, fmt.Errorf("appointment: book: %w", err)
	}

	reply = stripInlineJSON(reply)
	if reply == "" {
		reply = fmt.Sprintf("Appointment booked! You're seeing %s on %s. We'll remind you 24 hours before.",
			created.DoctorName, created.ScheduledTime.Format("Monday, January 2 at 3:04 PM"))
	}
	return reply, &Action{
		Action:        "book_appointment",
		AppointmentID: created.ID,
		Details:       &details,
		Success:       true,
	}, nil
}

func (a *Agent) applyAction(ctx context.Context, patientID int64, reply string, action *Action) (string, *Action, error) {
	switch action.Action {
	case "book_appointment":
		if action.Details != nil {
			return a.bookAppointment(ctx, patientID, reply, *action.Details)
		}
		return stripInlineJSON(reply), action, nil
	case "list_appointments":
		return a.listAppointments(ctx, patientID)
	case "cancel_appointment":
		if action.AppointmentID > 0 {
			return a.cancelAppointment(ctx, patientID, action.AppointmentID)
		}
		return stripInlineJSON(reply), action, nil
	case "update_appointment":
		return a.updateAppointment(ctx, patientID, reply, action)
	case "show_slots":
		return a.showSlots(reply, action)
	default:
		return stripInlineJSON(reply), nil, nil
	}
}

func (a *Agent) listAppointments(ctx context.Context, patientID int64) (string, *Action, error) {
	list, err := a.store.ListForPatient(ctx, patientID, 10)
	if err != nil {
		return "", nil, fmt.Errorf("appointment: list: %w", err)
	}

	action := &Action{Action: "list_appointments", Appointments: list, Success: true}
	if len(list) == 0 {
		return "You don't have any appointments scheduled yet. Would you like to book one?", action, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your appointments (%d total):\n\n", len(list))
	for _, apt := range list {
		fmt.Fprintf(&b, "Appointment #%d\n", apt.ID)
		fmt.Fprintf(&b, "  Doctor: %s\n", apt.DoctorName)
		fmt.Fprintf(&b, "  Type: %s\n", apt.AppointmentType)
		fmt.Fprintf(&b, "  Date: %s\n", apt.ScheduledTime.Format("Monday, January 2, 2006 at 3:04 PM"))
		fmt.Fprintf(&b, "  Status: %s\n", apt.Status)
		if apt.Reason != "" {
			fmt.Fprintf(&b, "  Reason: %s\n", apt.Reason)
		}
		location := apt.Location
		if apt.IsVirtual {
			location = "Virtual"
		}
		fmt.Fprintf(&b, "  Location: %s\n\n", location)
	}
	b.WriteString("You can cancel or reschedule any appointment by telling me the appointment number.")
	return b.String(), action, nil
}

func (a *Agent) cancelAppointment(ctx context.Context, patientID, appointmentID int64) (string, *Action, error) {
	cancelled, err := a.store.Cancel(ctx, patientID, appointmentID)
	if err != nil {
		if err == appointments.ErrNotFound {
			return fmt.Sprintf("I couldn't find appointment #%d on your account. Please check the appointment number.", appointmentID),
				&Action{Action: "cancel_appointment", AppointmentID: appointmentID, Error: "appointment not found"}, nil
		}
		return "", nil, fmt.Errorf("appointment: cancel: %w", err)
	}

	reply := fmt.Sprintf("Appointment #%d with %s (was scheduled for %s) has been cancelled. If you'd like to book a new appointment, just let me know.",
		cancelled.ID, cancelled.DoctorName, cancelled.ScheduledTime.Format("Monday, January 2, 2006 at 3:04 PM"))
	return reply, &Action{Action: "cancel_appointment", AppointmentID: cancelled.ID, Success: true}, nil
}

func (a *Agent) updateAppointment(ctx context.Context, patientID int64, reply string, action *Action) (string, *Action, error) {
	if action.AppointmentID == 0 || action.Updates == nil {
		return stripInlineJSON(reply), action, nil
	}

	req := appointments.UpdateAppointmentRequest{
		DurationMinutes: action.Updates.DurationMinutes,
		Notes:           action.Updates.Notes,
		IsVirtual:       action.Updates.IsVirtual,
	}
	if action.Updates.ScheduledTime != "" {
		scheduled, err := parseScheduledTime(action.Updates.ScheduledTime)
		if err != nil {
			return "I couldn't understand the new appointment time. Could you rephrase it?",
				&Action{Action: "update_appointment", AppointmentID: action.AppointmentID, Error: err.Error()}, nil
		}
		req.ScheduledTime = &scheduled
	}

	updated, err := a.store.Update(ctx, patientID, action.AppointmentID, req)
	if err != nil {
		if err == appointments.ErrNotFound {
			return fmt.Sprintf("I couldn't find appointment #%d on your account.", action.AppointmentID),
				&Action{Action: "update_appointment", AppointmentID: action.AppointmentID, Error: "appointment not found"}, nil
		}
		return "", nil, fmt.Errorf("appointment: update: %w", err)
	}

	response := fmt.Sprintf("Appointment #%d has been updated. You're now seeing %s on %s. You'll receive a reminder 24 hours before.",
		updated.ID, updated.DoctorName, updated.ScheduledTime.Format("Monday, January 2, 2006 at 3:04 PM"))
	return response, &Action{Action: "update_appointment", AppointmentID: updated.ID, Success: true}, nil
}

func (a *Agent) showSlots(reply string, action *Action) (string, *Action, error) {
	slots := GenerateSlots(a.now(), 7, action.DoctorName)
	if len(slots) > 10 {
		slots = slots[:10]
	}

	reply = stripInlineJSON(reply)
	if reply == "" {
		reply = "Here are the available appointment slots:"
	}
	var b strings.Builder
	b.WriteString(reply)
	b.WriteString("\n\nAvailable appointments:\n")
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, slot.Formatted)
	}
	return strings.TrimRight(b.String(), "\n"), &Action{Action: "show_slots", DoctorName: action.DoctorName, Slots: slots, Success: true}, nil
}

// extractAction finds an inline JSON action object in the reply, if any.
func extractAction(reply string) *Action {
	start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil
	}
	var action Action
	if err := json.Unmarshal([]byte(reply[start:end+1]), &action); err != nil {
		return nil
	}
	switch action.Action {
	case "book_appointment", "show_slots", "list_appointments", "cancel_appointment", "update_appointment":
		return &action
	default:
		return nil
	}
}

func stripInlineJSON(reply string) string {
	start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return strings.TrimSpace(reply)
	}
	return strings.TrimSpace(reply[:start] + reply[end+1:])
}

func parseScheduledTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("appointment: unrecognized time %q", raw)
}
