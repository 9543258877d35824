package draft

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

const draftColumns = "id, session_id, customer_id, current_step, status, vehicle_id, scheduled_date, branch_id, primary_service_id, bay_id, time_slot, expires_at, last_activity_at, created_at, updated_at"

// Repository репозиторий для работы с черновиками бронирований
// и таблицей связи черновик-услуги
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория черновиков
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый черновик
func (r *Repository) Create(ctx context.Context, d *domain.Draft) (*domain.Draft, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_drafts").
		Columns("session_id", "customer_id", "current_step", "status", "vehicle_id",
			"scheduled_date", "branch_id", "primary_service_id", "bay_id", "time_slot",
			"expires_at", "last_activity_at").
		Values(d.SessionID, d.CustomerID, d.CurrentStep, d.Status, d.VehicleID,
			d.ScheduledDate, d.BranchID, d.PrimaryServiceID, d.BayID, d.TimeSlot,
			d.ExpiresAt, d.LastActivityAt).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&d.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	d.CreatedAt = createdAt.Time
	d.UpdatedAt = updatedAt.Time

	return d, nil
}

// GetActiveBySession получает активный черновик сессии вместе со списком услуг
func (r *Repository) GetActiveBySession(ctx context.Context, sessionID string) (*domain.Draft, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(draftColumns).
		From("booking_drafts").
		Where(squirrel.Eq{"session_id": sessionID, "status": domain.DraftInProgress})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveBySession - build select query: %v", ErrBuildQuery, err)
	}

	d, err := scanDraft(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveBySession - scan draft: %v", ErrScanRow, err)
	}

	services, err := r.ListServices(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.ServiceIDs = services

	return d, nil
}

// ListActiveByCustomer получает все активные черновики клиента
// Используется для вытеснения конкурирующих черновиков - у клиента
// может быть только один активный черновик
func (r *Repository) ListActiveByCustomer(ctx context.Context, customerID int64) ([]*domain.Draft, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(draftColumns).
		From("booking_drafts").
		Where(squirrel.Eq{"customer_id": customerID, "status": domain.DraftInProgress}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByCustomer - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByCustomer - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanDrafts(rows)
}

// UpdateSelections сохраняет поля выбора, шаг и окна активности черновика
func (r *Repository) UpdateSelections(ctx context.Context, d *domain.Draft) error {
	return r.update(ctx, "UpdateSelections", psqlbuilder.Update("booking_drafts").
		Set("customer_id", d.CustomerID).
		Set("current_step", d.CurrentStep).
		Set("vehicle_id", d.VehicleID).
		Set("scheduled_date", d.ScheduledDate).
		Set("branch_id", d.BranchID).
		Set("primary_service_id", d.PrimaryServiceID).
		Set("bay_id", d.BayID).
		Set("time_slot", d.TimeSlot).
		Set("expires_at", d.ExpiresAt).
		Set("last_activity_at", d.LastActivityAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": d.ID}))
}

// UpdateStatus переводит черновик в новый статус
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.DraftStatus) error {
	return r.update(ctx, "UpdateStatus", psqlbuilder.Update("booking_drafts").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// AddService добавляет услугу в список выбора черновика
func (r *Repository) AddService(ctx context.Context, draftID, serviceID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("draft_services").
		Columns("draft_id", "service_id").
		Values(draftID, serviceID).
		Suffix("ON CONFLICT (draft_id, service_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: AddService - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: AddService - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// RemoveService удаляет услугу из списка выбора черновика
func (r *Repository) RemoveService(ctx context.Context, draftID, serviceID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("draft_services").
		Where(squirrel.Eq{"draft_id": draftID, "service_id": serviceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: RemoveService - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: RemoveService - execute delete: %v", ErrExecQuery, err)
	}

	return nil
}

// ClearServices очищает весь список услуг черновика
// Вызывается каскадным сбросом и сбросом черновика
func (r *Repository) ClearServices(ctx context.Context, draftID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("draft_services").
		Where(squirrel.Eq{"draft_id": draftID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ClearServices - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ClearServices - execute delete: %v", ErrExecQuery, err)
	}

	return nil
}

// ListServices получает список услуг черновика
func (r *Repository) ListServices(ctx context.Context, draftID int64) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("service_id").
		From("draft_services").
		Where(squirrel.Eq{"draft_id": draftID}).
		OrderBy("service_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListServices - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListServices - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	services := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ListServices - scan service_id: %v", ErrScanRow, err)
		}
		services = append(services, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListServices - rows error: %v", ErrScanRow, err)
	}

	return services, nil
}

// AbandonExpired помечает заброшенными все активные черновики с истекшим
// TTL или без активности дольше TTL. Возвращает число затронутых черновиков
func (r *Repository) AbandonExpired(ctx context.Context, now time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("booking_drafts").
		Set("status", domain.DraftAbandoned).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"status": domain.DraftInProgress}).
		Where(squirrel.Or{
			squirrel.Lt{"expires_at": now},
			squirrel.Lt{"last_activity_at": now.Add(-domain.DraftTTL)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: AbandonExpired - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: AbandonExpired - execute update: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: AbandonExpired - get rows affected: %v", ErrExecQuery, err)
	}

	return affected, nil
}

// DeleteAbandonedBefore физически удаляет заброшенные черновики старше cutoff
// Связанные записи draft_services удаляются каскадом на уровне схемы
func (r *Repository) DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("booking_drafts").
		Where(squirrel.Eq{"status": domain.DraftAbandoned}).
		Where(squirrel.Lt{"updated_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAbandonedBefore - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAbandonedBefore - execute delete: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAbandonedBefore - get rows affected: %v", ErrExecQuery, err)
	}

	return affected, nil
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
		return ErrDraftNotFound
	}

	return nil
}

// scanDraft сканирует одну строку в черновик (без списка услуг)
func scanDraft(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Draft, error) {
	var d domain.Draft
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&d.ID,
		&d.SessionID,
		&d.CustomerID,
		&d.CurrentStep,
		&d.Status,
		&d.VehicleID,
		&d.ScheduledDate,
		&d.BranchID,
		&d.PrimaryServiceID,
		&d.BayID,
		&d.TimeSlot,
		&d.ExpiresAt,
		&d.LastActivityAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.CreatedAt = createdAt.Time
	d.UpdatedAt = updatedAt.Time

	return &d, nil
}

// scanDrafts сканирует результаты запроса в слайс черновиков
func scanDrafts(rows *sql.Rows) ([]*domain.Draft, error) {
	drafts := make([]*domain.Draft, 0)

	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanDrafts - scan row: %v", ErrScanRow, err)
		}
		drafts = append(drafts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanDrafts - rows error: %v", ErrScanRow, err)
	}

	return drafts, nil
}
