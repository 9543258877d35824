package bayqueue

import (
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/integrations/bookingservice"
)

// resolveDuration определяет плановую длительность обслуживания бронирования.
// Порядок предпочтения: явная оценка бронирования, затем оценка по числу
// позиций, затем жесткий дефолт
func resolveDuration(booking *bookingservice.Booking) int {
	if booking.EstimatedDurationMinutes != nil && *booking.EstimatedDurationMinutes > 0 {
		return *booking.EstimatedDurationMinutes
	}
	if booking.ItemCount > 0 {
		return booking.ItemCount * domain.MinutesPerQueueItem
	}
	return domain.DefaultServiceDurationMinutes
}

// recomputeSchedule пересчитывает очередь целиком: переназначает позиции
// 1..N в текущем порядке и заново вычисляет оценки начала и завершения.
// Порядок берется из сохраненных позиций входного списка, не из сравнения
// временных меток - так пересчет стабилен при совпадающих оценках.
// Функция чистая: вход не мутируется, результат применяется вызывающим
// кодом одной пакетной записью
func recomputeSchedule(entries []*domain.QueueEntry, durations map[int64]int, now time.Time) []*domain.QueueEntry {
	result := make([]*domain.QueueEntry, 0, len(entries))

	prevCompletion := now
	for i, entry := range entries {
		duration := durations[entry.ID]
		if duration <= 0 {
			duration = domain.DefaultServiceDurationMinutes
		}

		updated := *entry
		updated.Position = i + 1
		if i == 0 {
			updated.EstimatedStart = now
		} else {
			updated.EstimatedStart = prevCompletion
		}
		updated.EstimatedCompletion = updated.EstimatedStart.Add(time.Duration(duration) * time.Minute)

		prevCompletion = updated.EstimatedCompletion
		result = append(result, &updated)
	}

	return result
}

// chainedStart вычисляет оценку начала для новой записи с позицией
// newPosition: конец последнего предшественника по сохраненной позиции,
// либо now для головы очереди. Если у предшественника нет сохраненной
// оценки завершения, она достраивается от его старта и длительности
func chainedStart(predecessors []*domain.QueueEntry, predDurations map[int64]int, newPosition int, now time.Time) time.Time {
	var latest *domain.QueueEntry
	for _, p := range predecessors {
		if p.Position >= newPosition {
			continue
		}
		if latest == nil || p.Position > latest.Position {
			latest = p
		}
	}

	if latest == nil {
		return now
	}

	if !latest.EstimatedCompletion.IsZero() {
		return latest.EstimatedCompletion
	}

	duration := predDurations[latest.ID]
	if duration <= 0 {
		duration = domain.DefaultServiceDurationMinutes
	}
	return latest.EstimatedStart.Add(time.Duration(duration) * time.Minute)
}
