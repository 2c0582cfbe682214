package service

import (
	"agenda/internal/domain"
	"agenda/internal/models"
)

type action string

const (
	actionConfirm  action = "confirmar"
	actionCancel   action = "cancelar"
	actionComplete action = "completar"
	actionNoShow   action = "marcar como ausente"
)

type transition struct {
	from []models.BookingStatus
	to   models.BookingStatus
}

// PENDING -> CONFIRMED -> COMPLETED | NO_SHOW; PENDING | CONFIRMED -> CANCELLED.
var transitions = map[action]transition{
	actionConfirm:  {from: []models.BookingStatus{models.StatusPending}, to: models.StatusConfirmed},
	actionCancel:   {from: []models.BookingStatus{models.StatusPending, models.StatusConfirmed}, to: models.StatusCancelled},
	actionComplete: {from: []models.BookingStatus{models.StatusConfirmed}, to: models.StatusCompleted},
	actionNoShow:   {from: []models.BookingStatus{models.StatusConfirmed}, to: models.StatusNoShow},
}

// nextStatus returns the status act leads to from current, or an InvalidTransition error.
func nextStatus(current models.BookingStatus, act action) (models.BookingStatus, error) {
	t, ok := transitions[act]
	if !ok {
		return "", domain.InvalidTransition(current, string(act))
	}
	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}
	return "", domain.InvalidTransition(current, string(act))
}
