package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/pkg/dbmetrics"
	"github.com/m04kA/SMC-BayService/pkg/psqlbuilder"
)

const entryColumns = "id, bay_id, booking_id, queue_date, position, estimated_start, estimated_completion, active, created_at, updated_at"

// Repository репозиторий для работы с очередями боксов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория очередей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую запись очереди
func (r *Repository) Create(ctx context.Context, entry *domain.QueueEntry) (*domain.QueueEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bay_queue_entries").
		Columns("bay_id", "booking_id", "queue_date", "position", "estimated_start", "estimated_completion", "active").
		Values(entry.BayID, entry.BookingID, entry.QueueDate, entry.Position, entry.EstimatedStart, entry.EstimatedCompletion, entry.Active).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time

	return entry, nil
}

// GetActiveByBooking получает активную запись очереди бронирования
// Поиск идет по всем боксам - бронирование может стоять только в одной очереди
func (r *Repository) GetActiveByBooking(ctx context.Context, bookingID int64) (*domain.QueueEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(entryColumns).
		From("bay_queue_entries").
		Where(squirrel.Eq{"booking_id": bookingID, "active": true})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByBooking - build select query: %v", ErrBuildQuery, err)
	}

	entry, err := scanEntry(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByBooking - scan entry: %v", ErrScanRow, err)
	}

	return entry, nil
}

// ListActiveByBayAndDate получает активные записи очереди бокса на дату,
// отсортированные по позиции. Оценка времени всегда идет по сохраненной
// позиции, не по сравнению временных меток
func (r *Repository) ListActiveByBayAndDate(ctx context.Context, bayID int64, date time.Time) ([]*domain.QueueEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(entryColumns).
		From("bay_queue_entries").
		Where(squirrel.Eq{"bay_id": bayID, "queue_date": date, "active": true}).
		OrderBy("position ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByBayAndDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByBayAndDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetLastPosition возвращает максимальную позицию среди активных записей
// очереди бокса на дату; 0, если очередь пуста
func (r *Repository) GetLastPosition(ctx context.Context, bayID int64, date time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(MAX(position), 0)").
		From("bay_queue_entries").
		Where(squirrel.Eq{"bay_id": bayID, "queue_date": date, "active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: GetLastPosition - build select query: %v", ErrBuildQuery, err)
	}

	var last int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		return 0, fmt.Errorf("%w: GetLastPosition - scan position: %v", ErrScanRow, err)
	}

	return last, nil
}

// CountActive возвращает длину активной очереди бокса на дату
func (r *Repository) CountActive(ctx context.Context, bayID int64, date time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("bay_queue_entries").
		Where(squirrel.Eq{"bay_id": bayID, "queue_date": date, "active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActive - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActive - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// Deactivate помечает запись очереди неактивной
// Записи очереди не удаляются физически
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bay_queue_entries").
		Set("active", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Deactivate - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Deactivate - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Deactivate - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// UpdateScheduleBatch сохраняет пересчитанные позиции и оценки времени
// Вызывается внутри транзакции, чтобы пересчет применялся целиком
func (r *Repository) UpdateScheduleBatch(ctx context.Context, entries []*domain.QueueEntry) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	for _, entry := range entries {
		query, args, err := psqlbuilder.Update("bay_queue_entries").
			Set("position", entry.Position).
			Set("estimated_start", entry.EstimatedStart).
			Set("estimated_completion", entry.EstimatedCompletion).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": entry.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: UpdateScheduleBatch - build update query: %v", ErrBuildQuery, err)
		}

		result, err := executor.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: UpdateScheduleBatch - execute update: %v", ErrExecQuery, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: UpdateScheduleBatch - get rows affected: %v", ErrExecQuery, err)
		}
		if rowsAffected == 0 {
			return ErrEntryNotFound
		}
	}

	return nil
}

// scanEntry сканирует одну строку в запись очереди
func scanEntry(row interface {
	Scan(dest ...interface{}) error
}) (*domain.QueueEntry, error) {
	var e domain.QueueEntry
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.BayID,
		&e.BookingID,
		&e.QueueDate,
		&e.Position,
		&e.EstimatedStart,
		&e.EstimatedCompletion,
		&e.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return &e, nil
}

// scanEntries сканирует результаты запроса в слайс записей очереди
func scanEntries(rows *sql.Rows) ([]*domain.QueueEntry, error) {
	entries := make([]*domain.QueueEntry, 0)

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanEntries - scan row: %v", ErrScanRow, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanEntries - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}
