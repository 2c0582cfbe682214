package domain

import (
	"errors"
	"fmt"

	"agenda/internal/models"
)

// Error kinds. Every error returned by the engine wraps exactly one of them.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation error")
)

// Error is a user-facing reason tied to one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrProfileNotFound = newError(ErrNotFound, "Perfil no encontrado")
	ErrServiceNotFound = newError(ErrNotFound, "Servicio no encontrado")
	ErrBookingNotFound = newError(ErrNotFound, "Reserva no encontrada")
	ErrWindowNotFound  = newError(ErrNotFound, "Horario no encontrado")
	ErrBlockNotFound   = newError(ErrNotFound, "Bloqueo no encontrado")

	ErrNotOwner = newError(ErrForbidden, "No tenes permisos sobre este recurso")

	ErrClosedDay          = newError(ErrConflict, "El profesional no atiende ese dia")
	ErrOutsideHours       = newError(ErrConflict, "El horario esta fuera del horario de atencion")
	ErrDateBlocked        = newError(ErrConflict, "El profesional no esta disponible en esa fecha")
	ErrSlotTaken          = newError(ErrConflict, "El horario ya esta reservado")
	ErrSlotBeingBooked    = newError(ErrConflict, "El horario se esta reservando, intenta nuevamente")
	ErrWindowOverlap      = newError(ErrConflict, "El horario se superpone con otro horario existente")
	ErrSlugTaken          = newError(ErrConflict, "El enlace ya esta en uso")
	ErrConcurrentModified = newError(ErrConflict, "La reserva fue modificada, intenta nuevamente")

	ErrInvalidTime     = newError(ErrValidation, "Hora invalida, se espera HH:MM")
	ErrInvalidDate     = newError(ErrValidation, "Fecha invalida, se espera AAAA-MM-DD")
	ErrInvalidRange    = newError(ErrValidation, "La hora de inicio debe ser anterior a la de fin")
	ErrInvalidDay      = newError(ErrValidation, "Dia de la semana invalido")
	ErrInvalidDuration = newError(ErrValidation, "Duracion de servicio no permitida")
	ErrPastDate        = newError(ErrValidation, "La fecha ya paso")
	ErrDateTooFar      = newError(ErrValidation, "La fecha esta demasiado lejos en el futuro")
	ErrInvalidActor    = newError(ErrValidation, "Origen de cancelacion invalido")
	ErrMissingClient   = newError(ErrValidation, "Faltan datos del cliente")
	ErrInvalidSlug     = newError(ErrValidation, "El enlace solo admite minusculas, numeros y guiones")
	ErrInvalidTimezone = newError(ErrValidation, "Zona horaria invalida")
	ErrInvalidName     = newError(ErrValidation, "El nombre es obligatorio")
)

// InvalidTransition reports an illegal status change, naming the current status.
func InvalidTransition(current models.BookingStatus, action string) error {
	return newError(ErrInvalidTransition,
		fmt.Sprintf("No se puede %s una reserva en estado %s", action, current))
}

// Kind returns the kind sentinel wrapped by err, or nil for foreign errors.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrConflict, ErrInvalidTransition, ErrValidation} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
