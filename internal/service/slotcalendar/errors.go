package slotcalendar

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slotcalendar: slot not found")

	// ErrBayNotFound возвращается, когда бокс не найден
	ErrBayNotFound = errors.New("slotcalendar: bay not found")

	// ErrBranchNotFound возвращается, когда филиал не найден
	ErrBranchNotFound = errors.New("slotcalendar: branch not found")

	// ErrSlotNotAvailable возвращается при попытке забронировать занятый слот
	ErrSlotNotAvailable = errors.New("slotcalendar: slot not available")

	// ErrInvalidTransition возвращается при недопустимом переходе статуса слота
	ErrInvalidTransition = errors.New("slotcalendar: invalid slot status transition")

	// ErrInvalidWorkingHours возвращается при некорректных рабочих часах бокса
	ErrInvalidWorkingHours = errors.New("slotcalendar: invalid bay working hours")

	// ErrInvalidTimeRange возвращается при некорректном временном диапазоне
	ErrInvalidTimeRange = errors.New("slotcalendar: invalid time range")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("slotcalendar: internal error")
)
