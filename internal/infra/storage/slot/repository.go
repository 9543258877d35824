package slot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/pkg/dbmetrics"
	"github.com/m04kA/SMC-BayService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

const slotColumns = "id, bay_id, slot_date, start_time, end_time, status, booking_id, actual_end_time, cancellation_reason, created_at, updated_at"

// Repository репозиторий для работы со слотами календаря боксов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreateBatch создает набор слотов одним запросом
// Используется генерацией календаря; вызывается внутри транзакции
// вместе с DeleteByBayAndDate
func (r *Repository) CreateBatch(ctx context.Context, slots []*domain.Slot) error {
	if len(slots) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertBuilder := psqlbuilder.Insert("bay_slots").
		Columns("bay_id", "slot_date", "start_time", "end_time", "status")

	for _, s := range slots {
		insertBuilder = insertBuilder.Values(s.BayID, s.SlotDate, s.StartTime, s.EndTime, s.Status)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: CreateBatch - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: CreateBatch - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// DeleteByBayAndDate удаляет все слоты бокса на дату
// Единственное место физического удаления слотов - перегенерация календаря
func (r *Repository) DeleteByBayAndDate(ctx context.Context, bayID int64, date time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("bay_slots").
		Where(squirrel.Eq{"bay_id": bayID, "slot_date": date}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteByBayAndDate - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: DeleteByBayAndDate - execute delete: %v", ErrExecQuery, err)
	}

	return nil
}

// GetByBayDateTime получает слот бокса по дате и времени начала
func (r *Repository) GetByBayDateTime(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns).
		From("bay_slots").
		Where(squirrel.Eq{"bay_id": bayID, "slot_date": date, "start_time": startTime})

	// В транзакции блокируем строку - слот будет менять статус
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBayDateTime - build select query: %v", ErrBuildQuery, err)
	}

	s, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBayDateTime - scan slot: %v", ErrScanRow, err)
	}

	return s, nil
}

// ListByBayAndDate получает слоты бокса на дату, отсортированные по времени
// Опционально фильтрует по статусу
func (r *Repository) ListByBayAndDate(ctx context.Context, bayID int64, date time.Time, status *domain.SlotStatus) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns).
		From("bay_slots").
		Where(squirrel.Eq{"bay_id": bayID, "slot_date": date}).
		OrderBy("start_time ASC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByBayAndDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByBayAndDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// ListByBookingAndDate получает слоты, привязанные к бронированию на дату
// Используется политикой освобождения слотов при отмене бронирования
func (r *Repository) ListByBookingAndDate(ctx context.Context, bookingID int64, date time.Time) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns).
		From("bay_slots").
		Where(squirrel.Eq{"booking_id": bookingID, "slot_date": date}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByBookingAndDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByBookingAndDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// MarkBooked переводит слот в статус booked с привязкой бронирования
func (r *Repository) MarkBooked(ctx context.Context, id int64, bookingID int64) error {
	return r.update(ctx, "MarkBooked", psqlbuilder.Update("bay_slots").
		Set("status", domain.SlotBooked).
		Set("booking_id", bookingID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// MarkBookedBatch переводит набор слотов в статус booked одним запросом
// Используется блокировкой диапазона, когда бронирование занимает
// несколько ячеек подряд
func (r *Repository) MarkBookedBatch(ctx context.Context, ids []int64, bookingID *int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.update(ctx, "MarkBookedBatch", psqlbuilder.Update("bay_slots").
		Set("status", domain.SlotBooked).
		Set("booking_id", bookingID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": ids}))
}

// MarkInProgress переводит слот в статус in_progress
func (r *Repository) MarkInProgress(ctx context.Context, id int64) error {
	return r.update(ctx, "MarkInProgress", psqlbuilder.Update("bay_slots").
		Set("status", domain.SlotInProgress).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// MarkCompleted переводит слот в статус completed с фиксацией
// фактического времени завершения
func (r *Repository) MarkCompleted(ctx context.Context, id int64, actualEnd time.Time) error {
	return r.update(ctx, "MarkCompleted", psqlbuilder.Update("bay_slots").
		Set("status", domain.SlotCompleted).
		Set("actual_end_time", actualEnd).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// MarkCancelled переводит слот в статус cancelled с причиной для аудита
func (r *Repository) MarkCancelled(ctx context.Context, id int64, reason string) error {
	return r.update(ctx, "MarkCancelled", psqlbuilder.Update("bay_slots").
		Set("status", domain.SlotCancelled).
		Set("cancellation_reason", reason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// Release возвращает слот в статус available, отвязывая бронирование
func (r *Repository) Release(ctx context.Context, id int64) error {
	return r.update(ctx, "Release", psqlbuilder.Update("bay_slots").
		Set("status", domain.SlotAvailable).
		Set("booking_id", nil).
		Set("actual_end_time", nil).
		Set("cancellation_reason", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// ReleaseBatch возвращает набор слотов в статус available одним запросом
// Используется каскадом раннего завершения обслуживания
func (r *Repository) ReleaseBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.update(ctx, "ReleaseBatch", psqlbuilder.Update("bay_slots").
		Set("status", domain.SlotAvailable).
		Set("booking_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": ids}))
}

// update выполняет UPDATE builder с маппингом нуля затронутых строк в NOT_FOUND
func (r *Repository) update(ctx context.Context, op string, builder squirrel.UpdateBuilder) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSlot сканирует одну строку в слот
func scanSlot(row rowScanner) (*domain.Slot, error) {
	var s domain.Slot
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.BayID,
		&s.SlotDate,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.BookingID,
		&s.ActualEndTime,
		&s.CancellationReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}

// scanSlots сканирует результаты запроса в слайс слотов
func scanSlots(rows *sql.Rows) ([]*domain.Slot, error) {
	slots := make([]*domain.Slot, 0)

	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanSlots - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanSlots - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}
