package services

import "github.com/meinhoongagan/clinic-server/models"

// statusTransitions lists, per caller role, the statuses that role may put
// an appointment into. Requests outside the table are ignored.
var statusTransitions = map[models.Role]map[models.AppointmentStatus]bool{
	models.RoleDoctor: {
		models.StatusPending:   true,
		models.StatusConfirmed: true,
		models.StatusCancelled: true,
		models.StatusCompleted: true,
	},
	models.RolePatient: {
		models.StatusCancelled: true,
	},
}

// CanSetStatus reports whether role may set an appointment to status.
func CanSetStatus(role models.Role, status models.AppointmentStatus) bool {
	return statusTransitions[role][status]
}
