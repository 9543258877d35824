package catalogservice

// Branch модель филиала из CatalogService
type Branch struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Bays   []Bay  `json:"bays"`
}

// ActiveBays возвращает только активные боксы филиала
func (b *Branch) ActiveBays() []Bay {
	bays := make([]Bay, 0, len(b.Bays))
	for _, bay := range b.Bays {
		if bay.Active {
			bays = append(bays, bay)
		}
	}
	return bays
}

// Bay модель сервисного бокса из CatalogService
type Bay struct {
	ID       int64  `json:"id"`
	BranchID int64  `json:"branch_id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`

	// Рабочие часы бокса, целые часы (например, 9 и 18)
	WorkingHoursStart int `json:"working_hours_start"`
	WorkingHoursEnd   int `json:"working_hours_end"`
}

// Service модель услуги из CatalogService
type Service struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Price           *float64 `json:"price,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	Active          bool     `json:"active"`
}

// ErrorResponse модель ошибки от CatalogService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
