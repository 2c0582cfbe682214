// Package notify renders booking messages and delivers them through a chat provider.
package notify

import (
	"fmt"
	"strings"
	"time"

	"agenda/internal/models"
)

// MessageData is everything a template may print about a booking.
type MessageData struct {
	ClientName       string
	ClientPhone      string
	ProfessionalName string
	ServiceName      string
	Date             time.Time
	StartTime        string
	EndTime          string
	Notes            string
	CancelledBy      models.CancelledBy
	Reason           string
}

var weekdays = [...]string{"domingo", "lunes", "martes", "miercoles", "jueves", "viernes", "sabado"}

var months = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

// HumanDate formats a day as "lunes 3 de marzo".
func HumanDate(d time.Time) string {
	return fmt.Sprintf("%s %d de %s", weekdays[d.Weekday()], d.Day(), months[d.Month()-1])
}

// NewBooking is sent to the professional when a client books.
func NewBooking(d MessageData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nueva reserva de %s\n", d.ClientName)
	fmt.Fprintf(&b, "%s el %s a las %s\n", d.ServiceName, HumanDate(d.Date), d.StartTime)
	fmt.Fprintf(&b, "Telefono: %s", d.ClientPhone)
	if d.Notes != "" {
		fmt.Fprintf(&b, "\nNotas: %s", d.Notes)
	}
	return b.String()
}

// Confirmation is sent to the client once the professional confirms.
func Confirmation(d MessageData) string {
	return fmt.Sprintf("Hola %s, tu turno de %s con %s el %s a las %s esta confirmado.",
		d.ClientName, d.ServiceName, d.ProfessionalName, HumanDate(d.Date), d.StartTime)
}

// Reminder24h is sent to the client the day before the appointment.
func Reminder24h(d MessageData) string {
	return fmt.Sprintf("Hola %s, te recordamos tu turno de %s con %s manana %s a las %s.",
		d.ClientName, d.ServiceName, d.ProfessionalName, HumanDate(d.Date), d.StartTime)
}

// Cancellation renders the notice for one party; toProfessional selects the wording.
func Cancellation(d MessageData, toProfessional bool) string {
	var b strings.Builder
	if toProfessional {
		fmt.Fprintf(&b, "Se cancelo la reserva de %s (%s) del %s a las %s",
			d.ClientName, d.ServiceName, HumanDate(d.Date), d.StartTime)
	} else {
		fmt.Fprintf(&b, "Hola %s, tu turno de %s con %s del %s a las %s fue cancelado",
			d.ClientName, d.ServiceName, d.ProfessionalName, HumanDate(d.Date), d.StartTime)
	}
	switch d.CancelledBy {
	case models.CancelledByClient:
		b.WriteString(" por el cliente")
	case models.CancelledByProfessional:
		b.WriteString(" por el profesional")
	}
	b.WriteString(".")
	if d.Reason != "" {
		fmt.Fprintf(&b, "\nMotivo: %s", d.Reason)
	}
	return b.String()
}
