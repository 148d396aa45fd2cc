package services

import (
	"context"
	"testing"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookedAppointment() *models.Appointment {
	return &models.Appointment{
		ID:      3,
		Date:    slotDate,
		Time:    slotTime,
		Status:  models.StatusConfirmed,
		Doctor:  models.Doctor{User: models.User{FirstName: "Greg", LastName: "House", Email: "house@x.com"}},
		Patient: models.Patient{User: models.User{FirstName: "Ana", LastName: "Silva", Email: "ana@x.com"}},
	}
}

func TestEmailNotifier_Booked(t *testing.T) {
	mailer := &fakeMailer{}
	n := NewEmailNotifier(mailer)

	require.NoError(t, n.AppointmentBooked(context.Background(), bookedAppointment()))
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "ana@x.com", mailer.sent[0].To)
	assert.Equal(t, "house@x.com", mailer.sent[1].To)
	assert.Contains(t, mailer.sent[0].Body, "2025-01-01")
	assert.Contains(t, mailer.sent[0].Body, "09:00")
	assert.Contains(t, mailer.sent[0].Body, "Dr. Greg House")
}

func TestEmailNotifier_ReminderAndStatus(t *testing.T) {
	mailer := &fakeMailer{}
	n := NewEmailNotifier(mailer)

	require.NoError(t, n.AppointmentReminder(context.Background(), bookedAppointment()))
	require.NoError(t, n.AppointmentStatusChanged(context.Background(), bookedAppointment()))
	require.Len(t, mailer.sent, 2)
	assert.Contains(t, mailer.sent[0].Subject, "Reminder")
	assert.Equal(t, "Appointment CONFIRMED", mailer.sent[1].Subject)

	mailer.err = errBoom
	assert.ErrorIs(t, n.AppointmentBooked(context.Background(), bookedAppointment()), errBoom)
}

func TestEmailNotifier_EscapesNames(t *testing.T) {
	mailer := &fakeMailer{}
	n := NewEmailNotifier(mailer)
	a := bookedAppointment()
	a.Patient.User.FirstName = `<a href="http://evil.example">Ana</a>`

	require.NoError(t, n.AppointmentBooked(context.Background(), a))
	require.Len(t, mailer.sent, 2)
	for _, m := range mailer.sent {
		assert.NotContains(t, m.Body, `<a href=`)
		assert.Contains(t, m.Body, "&lt;a href=")
	}
}
