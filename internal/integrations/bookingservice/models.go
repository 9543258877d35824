package bookingservice

// Booking модель бронирования из BookingService
type Booking struct {
	ID                       int64  `json:"id"`
	CustomerID               int64  `json:"customer_id"`
	BayID                    *int64 `json:"bay_id,omitempty"`
	EstimatedDurationMinutes *int   `json:"estimated_duration_minutes,omitempty"`
	ItemCount                int    `json:"item_count"`
	Status                   string `json:"status"`
}

// AssignBayRequest запрос на смену бокса у бронирования
type AssignBayRequest struct {
	BayID int64 `json:"bay_id"`
}

// ErrorResponse модель ошибки от BookingService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
