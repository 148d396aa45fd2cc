package services

import (
	"context"
	"fmt"
	"html"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/utils"
)

// Notifier tells the people involved about appointment events. Callers treat
// failures as non-fatal.
type Notifier interface {
	AppointmentBooked(ctx context.Context, a *models.Appointment) error
	AppointmentStatusChanged(ctx context.Context, a *models.Appointment) error
	AppointmentReminder(ctx context.Context, a *models.Appointment) error
}

// EmailNotifier sends HTML emails through a Mailer. The appointment must
// have its doctor and patient users loaded.
type EmailNotifier struct {
	mailer utils.Mailer
}

func NewEmailNotifier(mailer utils.Mailer) *EmailNotifier {
	return &EmailNotifier{mailer: mailer}
}

// Names come from users, so they are escaped before going into HTML.
func doctorName(a *models.Appointment) string  { return html.EscapeString(a.Doctor.User.FullName()) }
func patientName(a *models.Appointment) string { return html.EscapeString(a.Patient.User.FullName()) }
func greeting(u models.User) string            { return html.EscapeString(u.FirstName) }

func appointmentDetails(a *models.Appointment) string {
	return fmt.Sprintf(`
		<ul>
			<li><strong>Doctor:</strong> Dr. %s</li>
			<li><strong>Patient:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s</li>
			<li><strong>Status:</strong> %s</li>
		</ul>`,
		doctorName(a), patientName(a), a.Date, a.Time, a.Status)
}

func (n *EmailNotifier) AppointmentBooked(_ context.Context, a *models.Appointment) error {
	details := appointmentDetails(a)
	patientBody := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your appointment request has been received.</p>
		%s
		<p>You will be notified once the doctor confirms it.</p>`, greeting(a.Patient.User), details)
	if err := n.mailer.Send(a.Patient.User.Email, "Appointment requested", patientBody); err != nil {
		return fmt.Errorf("mail patient: %w", err)
	}

	doctorBody := fmt.Sprintf(`
		<p>Dear Dr. %s,</p>
		<p>A new appointment has been booked with you.</p>
		%s`, html.EscapeString(a.Doctor.User.LastName), details)
	if err := n.mailer.Send(a.Doctor.User.Email, "New appointment", doctorBody); err != nil {
		return fmt.Errorf("mail doctor: %w", err)
	}
	return nil
}

func (n *EmailNotifier) AppointmentStatusChanged(_ context.Context, a *models.Appointment) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your appointment is now <strong>%s</strong>.</p>
		%s`, greeting(a.Patient.User), a.Status, appointmentDetails(a))
	return n.mailer.Send(a.Patient.User.Email, fmt.Sprintf("Appointment %s", a.Status), body)
}

func (n *EmailNotifier) AppointmentReminder(_ context.Context, a *models.Appointment) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder for your upcoming appointment scheduled in one hour.</p>
		%s
		<p>Please arrive on time. If you need to reschedule or cancel, contact us as soon as possible.</p>`,
		greeting(a.Patient.User), appointmentDetails(a))
	return n.mailer.Send(a.Patient.User.Email, "Reminder: upcoming appointment", body)
}
