package complete_service

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("complete_service: slot not found")

	// ErrInvalidTransition возвращается, когда слот не находится в работе
	ErrInvalidTransition = errors.New("complete_service: slot is not in progress")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("complete_service: internal error")
)
