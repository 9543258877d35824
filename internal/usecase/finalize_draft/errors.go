package finalize_draft

import "errors"

var (
	// ErrDraftNotFound возвращается, когда активный черновик сессии не найден
	ErrDraftNotFound = errors.New("finalize_draft: draft not found")

	// ErrDraftIncomplete возвращается, когда в черновике заполнены не все шаги
	ErrDraftIncomplete = errors.New("finalize_draft: draft is incomplete")

	// ErrSlotNotAvailable возвращается, когда выбранный слот уже занят
	ErrSlotNotAvailable = errors.New("finalize_draft: slot is not available")

	// ErrSlotNotFound возвращается, когда слот на выбранную дату и время не существует
	ErrSlotNotFound = errors.New("finalize_draft: slot not found")

	// ErrAlreadyQueued возвращается, когда бронирование уже стоит в очереди
	ErrAlreadyQueued = errors.New("finalize_draft: booking is already queued")

	// ErrBookingNotFound возвращается, когда бронирование не найдено в BookingService
	ErrBookingNotFound = errors.New("finalize_draft: booking not found")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("finalize_draft: internal error")
)
