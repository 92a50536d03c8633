package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/port"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/repository"
)

// ReadingsRepository implements port.ReadingsRepository using PostgreSQL.
// A unique index on (user_id, meter_type, period) enforces the one-set-per
// period invariant at the storage layer.
type ReadingsRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewReadingsRepository wires a PostgreSQL-backed readings repository.
func NewReadingsRepository(exec pgExecutor) *ReadingsRepository {
	return &ReadingsRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert stores every meter value of the set in one transaction. Concurrent
// submissions for the same (user, period) race on the unique index; the
// loser observes repository.ErrDuplicate.
func (r *ReadingsRepository) Insert(ctx context.Context, set domain.ReadingSet) error {
	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin readings tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, meter := range domain.AllMeterTypes() {
		stmt, args, err := r.builder.Insert("meter_readings").
			Columns("user_id", "meter_type", "reading", "period").
			Values(set.UserID, string(meter), set.Values[meter], int(set.Period)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert reading sql: %w", err)
		}

		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert reading: %w", repository.ErrDuplicate)
			}
			return fmt.Errorf("insert reading: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit readings tx: %w", err)
	}

	return nil
}

// GetForPeriod returns the reading set for the exact period.
func (r *ReadingsRepository) GetForPeriod(ctx context.Context, userID int64, period time.Month) (*domain.ReadingSet, error) {
	stmt, args, err := r.builder.
		Select("meter_type", "reading").
		From("meter_readings").
		Where(squirrel.Eq{"user_id": userID, "period": int(period)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select readings sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	set := domain.ReadingSet{
		UserID: userID,
		Period: period,
		Values: make(map[domain.MeterType]int64),
	}

	for rows.Next() {
		var meter string
		var reading int64
		if err := rows.Scan(&meter, &reading); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		set.Values[domain.MeterType(meter)] = reading
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	if len(set.Values) == 0 {
		return nil, repository.ErrNotFound
	}

	return &set, nil
}

// GetCurrent returns the set for the latest period the user has submitted.
func (r *ReadingsRepository) GetCurrent(ctx context.Context, userID int64) (*domain.ReadingSet, error) {
	stmt, args, err := r.builder.
		Select("MAX(period)").
		From("meter_readings").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select latest period sql: %w", err)
	}

	var latest sql.NullInt64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&latest); err != nil {
		return nil, fmt.Errorf("scan latest period: %w", err)
	}
	if !latest.Valid {
		return nil, repository.ErrNotFound
	}

	return r.GetForPeriod(ctx, userID, time.Month(latest.Int64))
}

// GetHistory returns all of the user's sets ordered by period ascending.
func (r *ReadingsRepository) GetHistory(ctx context.Context, userID int64) ([]domain.ReadingSet, error) {
	stmt, args, err := r.builder.
		Select("period", "meter_type", "reading").
		From("meter_readings").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("period ASC", "meter_type ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select history sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []domain.ReadingSet
	for rows.Next() {
		var period int
		var meter string
		var reading int64
		if err := rows.Scan(&period, &meter, &reading); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}

		if len(history) == 0 || history[len(history)-1].Period != time.Month(period) {
			history = append(history, domain.ReadingSet{
				UserID: userID,
				Period: time.Month(period),
				Values: make(map[domain.MeterType]int64),
			})
		}
		history[len(history)-1].Values[domain.MeterType(meter)] = reading
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return history, nil
}

// GetAllCurrent returns the latest set per user across the whole system,
// keyed by username.
func (r *ReadingsRepository) GetAllCurrent(ctx context.Context) (map[string]domain.ReadingSet, error) {
	stmt, args, err := r.builder.
		Select("u.username", "r.user_id", "r.period", "r.meter_type", "r.reading").
		From("meter_readings r").
		Join("users u ON u.id = r.user_id").
		Where(squirrel.Expr("r.period = (SELECT MAX(m.period) FROM meter_readings m WHERE m.user_id = r.user_id)")).
		OrderBy("u.username ASC", "r.meter_type ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select all current sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query all current: %w", err)
	}
	defer rows.Close()

	current := make(map[string]domain.ReadingSet)
	for rows.Next() {
		var username, meter string
		var userID int64
		var period int
		var reading int64
		if err := rows.Scan(&username, &userID, &period, &meter, &reading); err != nil {
			return nil, fmt.Errorf("scan current row: %w", err)
		}

		set, ok := current[username]
		if !ok {
			set = domain.ReadingSet{
				UserID: userID,
				Period: time.Month(period),
				Values: make(map[domain.MeterType]int64),
			}
		}
		set.Values[domain.MeterType(meter)] = reading
		current[username] = set
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate current rows: %w", err)
	}

	return current, nil
}

var _ port.ReadingsRepository = (*ReadingsRepository)(nil)
