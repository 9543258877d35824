package bayqueue

import "errors"

var (
	// ErrAlreadyQueued возвращается, когда бронирование уже стоит в очереди
	// какого-либо бокса
	ErrAlreadyQueued = errors.New("bayqueue: booking is already queued")

	// ErrEntryNotFound возвращается, когда активная запись очереди не найдена
	ErrEntryNotFound = errors.New("bayqueue: queue entry not found")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("bayqueue: booking not found")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bayqueue: internal error")
)
