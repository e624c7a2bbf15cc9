package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/craftlane/fulfillment/internal/domain/errors"
	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/domain/repository"
)

// dbPool is the subset of pgxpool.Pool used by the storage. Satisfied by
// pgxmock in tests.
type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   dbPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type approvalRepository struct {
	storage *Storage
}

type notificationRepository struct {
	storage *Storage
}

// newPgxPool is a construction seam replaced in tests.
var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (dbPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Approvals() repository.ApprovalRepository {
	return &approvalRepository{storage: s}
}

func (s *Storage) Notifications() repository.NotificationRepository {
	return &notificationRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            number TEXT UNIQUE NOT NULL,
            customer_email TEXT NOT NULL,
            status TEXT NOT NULL,
            urgency TEXT NOT NULL DEFAULT 'NORMAL',
            design_approval_required BOOLEAN NOT NULL DEFAULT FALSE,
            tracking_number TEXT,
            expected_delivery TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS order_transitions (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            from_status TEXT NOT NULL,
            to_status TEXT NOT NULL,
            occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            actor TEXT NOT NULL,
            reason TEXT NOT NULL DEFAULT '',
            note TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS design_approvals (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            status TEXT NOT NULL,
            token TEXT NOT NULL,
            requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            expires_at TIMESTAMPTZ NOT NULL,
            responded_at TIMESTAMPTZ,
            approved_by TEXT NOT NULL DEFAULT '',
            rejected_by TEXT NOT NULL DEFAULT '',
            rejection_reason TEXT NOT NULL DEFAULT '',
            reminders_sent INT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            approval_id BIGINT REFERENCES design_approvals(id),
            recipient TEXT NOT NULL,
            template_id TEXT NOT NULL,
            status TEXT NOT NULL,
            provider_message_id TEXT NOT NULL DEFAULT '',
            retry_count INT NOT NULL DEFAULT 0,
            sent_at TIMESTAMPTZ,
            delivered_at TIMESTAMPTZ,
            opened_at TIMESTAMPTZ,
            clicked_at TIMESTAMPTZ,
            error_message TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_order ON order_transitions(order_id, occurred_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_approvals_open_order ON design_approvals(order_id) WHERE status = 'PENDING'`,
		`CREATE INDEX IF NOT EXISTS idx_approvals_pending ON design_approvals(status, requested_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications(status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_provider ON notifications(provider_message_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

const orderColumns = `id, number, customer_email, status, urgency, design_approval_required, tracking_number, expected_delivery, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner, o *model.Order) error {
	return row.Scan(&o.ID, &o.Number, &o.CustomerEmail, &o.Status, &o.Urgency, &o.DesignApprovalRequired, &o.TrackingNumber, &o.ExpectedDelivery, &o.CreatedAt, &o.UpdatedAt)
}

// --- OrderRepository implementation ---

func (r *orderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	const query = `INSERT INTO orders (number, customer_email, status, urgency, design_approval_required, expected_delivery)
                   VALUES ($1, $2, $3, $4, $5, $6)
                   RETURNING id, created_at, updated_at`
	created := *order
	err := r.storage.pool.QueryRow(ctx, query,
		order.Number, order.CustomerEmail, order.Status, order.Urgency, order.DesignApprovalRequired, order.ExpectedDelivery,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	var o model.Order
	if err := scanOrder(r.storage.pool.QueryRow(ctx, query, id), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE number=$1`
	var o model.Order
	if err := scanOrder(r.storage.pool.QueryRow(ctx, query, number), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus, trackingNumber *string, rec model.StatusTransition) (*model.Order, error) {
	var updated model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		updateQuery := `UPDATE orders
                        SET status=$2, tracking_number=COALESCE($3, tracking_number), updated_at=NOW()
                        WHERE id=$1 AND status=$4
                        RETURNING ` + orderColumns
		if err := scanOrder(tx.QueryRow(ctx, updateQuery, orderID, to, trackingNumber, from), &updated); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrConflict
			}
			return err
		}

		const insertQuery = `INSERT INTO order_transitions (order_id, from_status, to_status, occurred_at, actor, reason, note)
                             VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := tx.Exec(ctx, insertQuery, orderID, rec.From, rec.To, rec.OccurredAt, rec.Actor, rec.Reason, rec.Note); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *orderRepository) ListTransitions(ctx context.Context, orderID int64) ([]model.StatusTransition, error) {
	const query = `SELECT id, order_id, from_status, to_status, occurred_at, actor, reason, note
                   FROM order_transitions WHERE order_id=$1 ORDER BY occurred_at, id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.StatusTransition
	for rows.Next() {
		var t model.StatusTransition
		if err := rows.Scan(&t.ID, &t.OrderID, &t.From, &t.To, &t.OccurredAt, &t.Actor, &t.Reason, &t.Note); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) ListAwaitingApproval(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
              FROM orders
              WHERE status='DESIGN_PENDING' AND design_approval_required
                AND NOT EXISTS (
                    SELECT 1 FROM design_approvals a
                    WHERE a.order_id = orders.id AND a.status='PENDING'
                )
              ORDER BY updated_at`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- ApprovalRepository implementation ---

const approvalColumns = `id, order_id, status, token, requested_at, expires_at, responded_at, approved_by, rejected_by, rejection_reason, reminders_sent`

func scanApproval(row rowScanner, a *model.DesignApproval) error {
	return row.Scan(&a.ID, &a.OrderID, &a.Status, &a.Token, &a.RequestedAt, &a.ExpiresAt, &a.RespondedAt, &a.ApprovedBy, &a.RejectedBy, &a.RejectionReason, &a.RemindersSent)
}

func (r *approvalRepository) Create(ctx context.Context, approval *model.DesignApproval) (*model.DesignApproval, error) {
	const query = `INSERT INTO design_approvals (order_id, status, token, requested_at, expires_at)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING id`
	created := *approval
	err := r.storage.pool.QueryRow(ctx, query,
		approval.OrderID, approval.Status, approval.Token, approval.RequestedAt, approval.ExpiresAt,
	).Scan(&created.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *approvalRepository) GetByID(ctx context.Context, id int64) (*model.DesignApproval, error) {
	query := `SELECT ` + approvalColumns + ` FROM design_approvals WHERE id=$1`
	var a model.DesignApproval
	if err := scanApproval(r.storage.pool.QueryRow(ctx, query, id), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *approvalRepository) FindOpenByOrder(ctx context.Context, orderID int64) (*model.DesignApproval, error) {
	query := `SELECT ` + approvalColumns + ` FROM design_approvals WHERE order_id=$1 AND status='PENDING'`
	var a model.DesignApproval
	if err := scanApproval(r.storage.pool.QueryRow(ctx, query, orderID), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *approvalRepository) Close(ctx context.Context, id int64, closure model.ApprovalClosure) (*model.DesignApproval, error) {
	query := `UPDATE design_approvals
              SET status=$2, responded_at=$3, approved_by=$4, rejected_by=$5, rejection_reason=$6
              WHERE id=$1 AND status='PENDING'
              RETURNING ` + approvalColumns
	var a model.DesignApproval
	err := scanApproval(r.storage.pool.QueryRow(ctx, query,
		id, closure.Status, closure.RespondedAt, closure.ApprovedBy, closure.RejectedBy, closure.RejectionReason,
	), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrAlreadyDecided
		}
		return nil, err
	}
	return &a, nil
}

func (r *approvalRepository) IncrementReminders(ctx context.Context, id int64) (*model.DesignApproval, error) {
	query := `UPDATE design_approvals
              SET reminders_sent = reminders_sent + 1
              WHERE id=$1 AND status='PENDING'
              RETURNING ` + approvalColumns
	var a model.DesignApproval
	if err := scanApproval(r.storage.pool.QueryRow(ctx, query, id), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrAlreadyDecided
		}
		return nil, err
	}
	return &a, nil
}

func (r *approvalRepository) FindPendingOlderThan(ctx context.Context, age time.Duration) ([]model.DesignApproval, error) {
	cutoff := time.Now().Add(-age)
	query := `SELECT ` + approvalColumns + `
              FROM design_approvals
              WHERE status='PENDING' AND requested_at <= $1
              ORDER BY requested_at`
	rows, err := r.storage.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.DesignApproval
	for rows.Next() {
		var a model.DesignApproval
		if err := scanApproval(rows, &a); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *approvalRepository) ListOpenWithOrders(ctx context.Context) ([]model.ApprovalWithOrder, error) {
	const query = `SELECT a.id, a.order_id, a.status, a.token, a.requested_at, a.expires_at, a.responded_at,
                          a.approved_by, a.rejected_by, a.rejection_reason, a.reminders_sent,
                          o.id, o.number, o.customer_email, o.status, o.urgency, o.design_approval_required,
                          o.tracking_number, o.expected_delivery, o.created_at, o.updated_at
                   FROM design_approvals a
                   JOIN orders o ON o.id = a.order_id
                   WHERE a.status='PENDING'
                   ORDER BY a.requested_at`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ApprovalWithOrder
	for rows.Next() {
		var item model.ApprovalWithOrder
		a := &item.Approval
		o := &item.Order
		if err := rows.Scan(&a.ID, &a.OrderID, &a.Status, &a.Token, &a.RequestedAt, &a.ExpiresAt, &a.RespondedAt,
			&a.ApprovedBy, &a.RejectedBy, &a.RejectionReason, &a.RemindersSent,
			&o.ID, &o.Number, &o.CustomerEmail, &o.Status, &o.Urgency, &o.DesignApprovalRequired,
			&o.TrackingNumber, &o.ExpectedDelivery, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- NotificationRepository implementation ---

const notificationColumns = `id, order_id, approval_id, recipient, template_id, status, provider_message_id, retry_count, sent_at, delivered_at, opened_at, clicked_at, error_message, created_at`

func scanNotification(row rowScanner, n *model.Notification) error {
	return row.Scan(&n.ID, &n.OrderID, &n.ApprovalID, &n.Recipient, &n.TemplateID, &n.Status, &n.ProviderMessageID, &n.RetryCount, &n.SentAt, &n.DeliveredAt, &n.OpenedAt, &n.ClickedAt, &n.ErrorMessage, &n.CreatedAt)
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	const query = `INSERT INTO notifications (order_id, approval_id, recipient, template_id, status)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING id, created_at`
	created := *n
	err := r.storage.pool.QueryRow(ctx, query,
		n.OrderID, n.ApprovalID, n.Recipient, n.TemplateID, n.Status,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id=$1`
	var n model.Notification
	if err := scanNotification(r.storage.pool.QueryRow(ctx, query, id), &n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE provider_message_id=$1`
	var n model.Notification
	if err := scanNotification(r.storage.pool.QueryRow(ctx, query, providerMessageID), &n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	const query = `UPDATE notifications
                   SET status=$2, provider_message_id=$3, retry_count=$4, sent_at=$5, delivered_at=$6, opened_at=$7, clicked_at=$8, error_message=$9
                   WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query,
		n.ID, n.Status, n.ProviderMessageID, n.RetryCount, n.SentAt, n.DeliveredAt, n.OpenedAt, n.ClickedAt, n.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domainErrors.ErrNotFound
	}
	updated := *n
	return &updated, nil
}

func (r *notificationRepository) MarkSending(ctx context.Context, id int64) (*model.Notification, error) {
	query := `UPDATE notifications
              SET status='SENDING'
              WHERE id=$1 AND status='PENDING'
              RETURNING ` + notificationColumns
	var n model.Notification
	if err := scanNotification(r.storage.pool.QueryRow(ctx, query, id), &n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrConflict
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) SelectBatchForSending(ctx context.Context, limit int) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + `
              FROM notifications
              WHERE status='PENDING'
              ORDER BY created_at
              LIMIT $1
              FOR UPDATE SKIP LOCKED`

	var result []model.Notification
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var n model.Notification
			if err := scanNotification(rows, &n); err != nil {
				return err
			}
			result = append(result, n)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(result) == 0 {
			return nil
		}

		// Claim inside the transaction: once the row locks are released
		// on commit, another dispatcher must not re-select the batch.
		ids := make([]int64, len(result))
		for i := range result {
			ids[i] = result[i].ID
		}
		if _, err := tx.Exec(ctx, `UPDATE notifications SET status='SENDING' WHERE id = ANY($1)`, ids); err != nil {
			return err
		}
		for i := range result {
			result[i].Status = model.NotificationStatusSending
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *notificationRepository) SelectBatchForRetry(ctx context.Context, limit, maxRetries int) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + `
              FROM notifications
              WHERE status IN ('FAILED', 'BOUNCED') AND retry_count < $2
              ORDER BY created_at
              LIMIT $1`
	rows, err := r.storage.pool.Query(ctx, query, limit, maxRetries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *notificationRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE order_id=$1 ORDER BY created_at`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
