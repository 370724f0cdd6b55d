package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
	"github.com/garyjia/backoffice-approvals/internal/infrastructure/persistence/sqlite"
)

const requestColumns = `
	id, module, owner_user_id, owner_name, department, division, description,
	amount, currency, status, approve_order, current_approver_user_id, current_approver_name,
	version, created_at, updated_at, settled_at`

// RequestRepository implements port.RequestRepository on SQLite
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the request with its items and history in one transaction
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO requests (
				module, owner_user_id, owner_name, department, division, description,
				amount, currency, status, approve_order, current_approver_user_id, current_approver_name,
				version, created_at, updated_at, settled_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
		`
		result, err := r.exec(ctx).ExecContext(ctx, query,
			req.Module,
			req.OwnerUserID,
			req.OwnerName,
			req.Department,
			req.Division,
			req.Description,
			req.Amount,
			req.Currency,
			req.Status,
			req.ApproveOrder,
			nullString(req.CurrentApproverUserID),
			nullString(req.CurrentApproverName),
			req.CreatedAt,
			req.UpdatedAt,
			nullTime(req.SettledAt),
		)
		if err != nil {
			r.logger.Error("Failed to create request", zap.String("module", string(req.Module)), zap.Error(err))
			return fmt.Errorf("failed to create request: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		req.ID = id
		req.Version = 1

		for i := range req.Items {
			if err := r.insertItem(ctx, req.ID, i+1, &req.Items[i]); err != nil {
				return err
			}
		}
		return r.insertPendingHistory(ctx, req)
	})
}

// GetByID loads a request with items and history; (nil, nil) when absent or of another module
func (r *RequestRepository) GetByID(ctx context.Context, module entity.Module, id int64) (*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ? AND module = ?`

	req, err := scanRequest(r.exec(ctx).QueryRowContext(ctx, query, id, module))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	if err := r.loadChildren(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// List returns requests newest first
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter) ([]*entity.Request, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Module != "" {
		where = append(where, "module = ?")
		args = append(args, filter.Module)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.OwnerUserID != "" {
		where = append(where, "owner_user_id = ?")
		args = append(args, filter.OwnerUserID)
	}

	query := `SELECT ` + requestColumns + ` FROM requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, filter.Offset)

	return r.query(ctx, query, args...)
}

// ListPendingFor returns requests of every module awaiting userID, oldest first
func (r *RequestRepository) ListPendingFor(ctx context.Context, userID string) ([]*entity.Request, error) {
	query := `SELECT ` + requestColumns + `
		FROM requests
		WHERE status = ? AND current_approver_user_id = ?
		ORDER BY id ASC`
	return r.query(ctx, query, workflow.StatePending, userID)
}

// Update applies a transition only if the row still matches guard and is PENDING.
// New history records are inserted in the same transaction.
func (r *RequestRepository) Update(ctx context.Context, req *entity.Request, guard port.UpdateGuard) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		query := `
			UPDATE requests SET
				status = ?,
				approve_order = ?,
				current_approver_user_id = ?,
				current_approver_name = ?,
				version = version + 1,
				updated_at = ?,
				settled_at = ?
			WHERE id = ? AND module = ?
				AND version = ?
				AND status = 'PENDING'
				AND approve_order = ?
				AND IFNULL(current_approver_user_id, '') = ?
		`
		result, err := r.exec(ctx).ExecContext(ctx, query,
			req.Status,
			req.ApproveOrder,
			nullString(req.CurrentApproverUserID),
			nullString(req.CurrentApproverName),
			req.UpdatedAt,
			nullTime(req.SettledAt),
			req.ID,
			req.Module,
			guard.Version,
			guard.ApproveOrder,
			guard.CurrentApproverUserID,
		)
		if err != nil {
			r.logger.Error("Failed to update request", zap.Int64("id", req.ID), zap.Error(err))
			return fmt.Errorf("failed to update request: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return port.ErrVersionConflict
		}

		if err := r.insertPendingHistory(ctx, req); err != nil {
			return err
		}
		req.Version = guard.Version + 1
		return nil
	})
}

func (r *RequestRepository) exec(ctx context.Context) sqlite.QueryExecutor {
	return sqlite.Executor(ctx, r.db.DB)
}

func (r *RequestRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Request, error) {
	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	var reqs []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}
	// release the cursor before issuing child queries on the same connection
	rows.Close()

	for _, req := range reqs {
		if err := r.loadChildren(ctx, req); err != nil {
			return nil, err
		}
	}
	return reqs, nil
}

func (r *RequestRepository) loadChildren(ctx context.Context, req *entity.Request) error {
	items, err := r.items(ctx, req.ID)
	if err != nil {
		return err
	}
	history, err := r.history(ctx, req.ID)
	if err != nil {
		return err
	}
	req.Items = items
	req.History = history
	return nil
}

func (r *RequestRepository) items(ctx context.Context, requestID int64) ([]entity.LineItem, error) {
	query := `SELECT id, description, amount FROM request_items WHERE request_id = ? ORDER BY line_no`

	rows, err := r.exec(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get request items: %w", err)
	}
	defer rows.Close()

	var items []entity.LineItem
	for rows.Next() {
		var item entity.LineItem
		if err := rows.Scan(&item.ID, &item.Description, &item.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan request item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *RequestRepository) history(ctx context.Context, requestID int64) ([]entity.HistoryRecord, error) {
	query := `
		SELECT id, actor_user_id, actor_name, action, position, note, created_at
		FROM request_history
		WHERE request_id = ?
		ORDER BY id
	`
	rows, err := r.exec(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get request history: %w", err)
	}
	defer rows.Close()

	var history []entity.HistoryRecord
	for rows.Next() {
		var h entity.HistoryRecord
		if err := rows.Scan(&h.ID, &h.ActorUserID, &h.ActorName, &h.Action, &h.Position, &h.Note, &h.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *RequestRepository) insertItem(ctx context.Context, requestID int64, lineNo int, item *entity.LineItem) error {
	query := `INSERT INTO request_items (request_id, line_no, description, amount) VALUES (?, ?, ?, ?)`

	result, err := r.exec(ctx).ExecContext(ctx, query, requestID, lineNo, item.Description, item.Amount)
	if err != nil {
		r.logger.Error("Failed to create request item", zap.Int64("request_id", requestID), zap.Error(err))
		return fmt.Errorf("failed to create request item: %w", err)
	}
	if item.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	return nil
}

// insertPendingHistory appends the records that have no ID yet
func (r *RequestRepository) insertPendingHistory(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO request_history (request_id, actor_user_id, actor_name, action, position, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i := range req.History {
		h := &req.History[i]
		if h.ID != 0 {
			continue
		}

		result, err := r.exec(ctx).ExecContext(ctx, query,
			req.ID, h.ActorUserID, h.ActorName, h.Action, h.Position, h.Note, h.Timestamp)
		if err != nil {
			r.logger.Error("Failed to append history",
				zap.Int64("request_id", req.ID),
				zap.String("action", h.Action),
				zap.Int("position", h.Position),
				zap.Error(err))
			return fmt.Errorf("failed to append history: %w", err)
		}
		if h.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.Request, error) {
	var (
		req          entity.Request
		approverID   sql.NullString
		approverName sql.NullString
		settledAt    sql.NullTime
	)
	err := row.Scan(
		&req.ID,
		&req.Module,
		&req.OwnerUserID,
		&req.OwnerName,
		&req.Department,
		&req.Division,
		&req.Description,
		&req.Amount,
		&req.Currency,
		&req.Status,
		&req.ApproveOrder,
		&approverID,
		&approverName,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
		&settledAt,
	)
	if err != nil {
		return nil, err
	}

	req.CurrentApproverUserID = approverID.String
	req.CurrentApproverName = approverName.String
	if settledAt.Valid {
		req.SettledAt = &settledAt.Time
	}
	return &req, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ port.RequestRepository = (*RequestRepository)(nil)
