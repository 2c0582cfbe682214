package models

// таймзоны профилей не должны зависеть от системной базы tzdata
import _ "time/tzdata"

const (
	// SlotStepMinutes шаг между соседними стартами слотов
	SlotStepMinutes = 15

	// MinutesPerDay количество минут в сутках
	MinutesPerDay = 24 * 60

	// DefaultMaxBookingDays насколько далеко вперед можно бронировать
	DefaultMaxBookingDays = 90

	// DefaultLockTTL время жизни блокировки на (профиль, дата) в секундах
	DefaultLockTTL = 10

	// DefaultNotifyTimeout таймаут одной отправки уведомления в секундах
	DefaultNotifyTimeout = 5

	// DefaultReminderInterval период проверки напоминаний в минутах
	DefaultReminderInterval = 30

	// DefaultTimezone таймзона профиля по умолчанию
	DefaultTimezone = "America/Argentina/Buenos_Aires"

	// DateLayout формат календарной даты
	DateLayout = "2006-01-02"

	// ClockLayout формат времени суток
	ClockLayout = "15:04"
)

// AllowedDurations допустимые длительности услуги в минутах.
var AllowedDurations = []int{15, 30, 45, 60, 90, 120}

// IsAllowedDuration reports whether minutes is one of AllowedDurations.
func IsAllowedDuration(minutes int) bool {
	for _, d := range AllowedDurations {
		if d == minutes {
			return true
		}
	}
	return false
}
