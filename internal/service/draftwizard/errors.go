package draftwizard

import "errors"

var (
	// ErrDraftNotFound возвращается, когда активный черновик сессии не найден
	ErrDraftNotFound = errors.New("draftwizard: draft not found")

	// ErrDraftNotActive возвращается при попытке изменить завершенный
	// или заброшенный черновик
	ErrDraftNotActive = errors.New("draftwizard: draft is not in progress")

	// ErrBranchNotFound возвращается, когда филиал не найден
	ErrBranchNotFound = errors.New("draftwizard: branch not found")

	// ErrBayNotFound возвращается, когда бокс не найден
	ErrBayNotFound = errors.New("draftwizard: bay not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("draftwizard: service not found")

	// ErrServiceNotInDraft возвращается при удалении услуги, которой нет
	// в списке выбора черновика
	ErrServiceNotInDraft = errors.New("draftwizard: service is not in draft selection")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("draftwizard: internal error")
)
