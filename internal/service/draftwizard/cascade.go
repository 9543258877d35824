package draftwizard

import "github.com/m04kA/SMC-BayService/internal/domain"

// Имена полей мастера, используются в правилах каскада и в missingData
const (
	FieldVehicle = "vehicle"
	FieldBranch  = "branch"
	FieldDate    = "date"
	FieldService = "service"
	FieldBay     = "bay"
	FieldTime    = "time"
)

// cascadeRule описывает одно правило каскадного сброса: смена значения
// trigger очищает все clears
type cascadeRule struct {
	trigger string
	clears  []string
}

// cascadeRules фиксированная цепочка зависимостей полей мастера:
// branch > date > service > bay > time. Правила перебираются сверху вниз,
// применяется ровно одно - первое совпавшее. Vehicle и time ничего не
// каскадируют
var cascadeRules = []cascadeRule{
	{trigger: FieldBranch, clears: []string{FieldService, FieldBay, FieldTime, FieldDate}},
	{trigger: FieldDate, clears: []string{FieldService, FieldBay, FieldTime}},
	{trigger: FieldService, clears: []string{FieldBay, FieldTime}},
	{trigger: FieldBay, clears: []string{FieldTime}},
}

// applyCascade применяет первое совпавшее правило каскада к черновику
// и возвращает список фактически очищенных полей.
// Поля, установленные тем же запросом, не очищаются: каскад защищает
// от устаревших значений, а значение из текущего запроса не устарело
func applyCascade(d *domain.Draft, changed map[string]bool) []string {
	for _, rule := range cascadeRules {
		if !changed[rule.trigger] {
			continue
		}

		cleared := make([]string, 0, len(rule.clears))
		for _, field := range rule.clears {
			if changed[field] {
				continue
			}
			if clearField(d, field) {
				cleared = append(cleared, field)
			}
		}
		return cleared
	}
	return nil
}

// clearField очищает поле черновика; возвращает true, если поле было задано.
// Очистка service очищает и весь список выбранных услуг, не только
// основную услугу
func clearField(d *domain.Draft, field string) bool {
	switch field {
	case FieldVehicle:
		had := d.VehicleID != nil
		d.VehicleID = nil
		return had
	case FieldBranch:
		had := d.BranchID != nil
		d.BranchID = nil
		return had
	case FieldDate:
		had := d.ScheduledDate != nil
		d.ScheduledDate = nil
		return had
	case FieldService:
		had := d.PrimaryServiceID != nil || len(d.ServiceIDs) > 0
		d.PrimaryServiceID = nil
		d.ServiceIDs = nil
		return had
	case FieldBay:
		had := d.BayID != nil
		d.BayID = nil
		return had
	case FieldTime:
		had := d.TimeSlot != nil
		d.TimeSlot = nil
		return had
	default:
		return false
	}
}

// computeStep возвращает наибольший шаг, все предшественники которого
// заполнены. Порядок шагов: vehicle, branch, date, service, bay, time,
// confirm
func computeStep(d *domain.Draft) int {
	switch {
	case d.VehicleID == nil:
		return domain.StepVehicle
	case d.BranchID == nil:
		return domain.StepBranch
	case d.ScheduledDate == nil:
		return domain.StepDate
	case d.PrimaryServiceID == nil:
		return domain.StepService
	case d.BayID == nil:
		return domain.StepBay
	case d.TimeSlot == nil:
		return domain.StepTime
	default:
		return domain.StepConfirm
	}
}

// missingData возвращает список незаполненных полей в порядке шагов мастера
func missingData(d *domain.Draft) []string {
	missing := make([]string, 0)
	if d.VehicleID == nil {
		missing = append(missing, FieldVehicle)
	}
	if d.BranchID == nil {
		missing = append(missing, FieldBranch)
	}
	if d.ScheduledDate == nil {
		missing = append(missing, FieldDate)
	}
	if d.PrimaryServiceID == nil {
		missing = append(missing, FieldService)
	}
	if d.BayID == nil {
		missing = append(missing, FieldBay)
	}
	if d.TimeSlot == nil {
		missing = append(missing, FieldTime)
	}
	return missing
}
