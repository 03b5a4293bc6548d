package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"campusevents/internal/model"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventNotApproved      = errors.New("event is not approved for registration")
	ErrEventFull             = errors.New("event is full")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrAlreadyPaid           = errors.New("registration already paid with a different confirmation")
	ErrRegistrationExpired   = errors.New("registration expired")
)

type Repository interface {
	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	GetApprovedEvents(ctx context.Context) ([]model.Event, error)
	CountActiveRegistrations(ctx context.Context, eventID int64) (int, error)

	RegisterTx(ctx context.Context, reg *model.Registration) (int64, int, error)
	GetRegistrationByEventAndUser(ctx context.Context, eventID, userID int64) (*model.Registration, error)
	GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error)
	GetRegistrationByOrderID(ctx context.Context, orderID string) (*model.Registration, error)
	GetRegistrationsByUser(ctx context.Context, userID int64) ([]model.Registration, error)
	AttachOrder(ctx context.Context, registrationID int64, orderID string) error
	MarkPaidTx(ctx context.Context, registrationID int64, paymentID, signature string) (*model.Registration, error)
	ExpireIfUnpaidTx(ctx context.Context, registrationID int64) (bool, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	query := `
		INSERT INTO events (name, description, start_time, end_time, venue, department,
		                    contact_info, reg_fee, capacity, payment_timeout_minutes, approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	row := r.db.QueryRowContext(ctx, query,
		e.Name, e.Description, e.StartTime, e.EndTime, e.Venue, e.Department,
		e.ContactInfo, e.RegFee, e.Capacity, e.PaymentTimeoutMinutes, e.Approved,
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `
		SELECT id, name, description, start_time, end_time, venue, department,
		       contact_info, reg_fee, capacity, payment_timeout_minutes, approved,
		       created_at, updated_at
		FROM events WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var e model.Event
	if err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.StartTime, &e.EndTime, &e.Venue, &e.Department,
		&e.ContactInfo, &e.RegFee, &e.Capacity, &e.PaymentTimeoutMinutes, &e.Approved,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, ErrEventNotFound
	}
	return &e, nil
}

// GetApprovedEvents backs the public catalogue; draft and rejected events
// stay invisible until approval.
func (r *repository) GetApprovedEvents(ctx context.Context) ([]model.Event, error) {
	query := `
		SELECT id, name, description, start_time, end_time, venue, department,
		       contact_info, reg_fee, capacity, payment_timeout_minutes, approved,
		       created_at, updated_at
		FROM events
		WHERE approved = TRUE
		ORDER BY start_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Description, &e.StartTime, &e.EndTime, &e.Venue, &e.Department,
			&e.ContactInfo, &e.RegFee, &e.Capacity, &e.PaymentTimeoutMinutes, &e.Approved,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}

func (r *repository) CountActiveRegistrations(ctx context.Context, eventID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND payment_status != 'expired'
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	return count, nil
}

// RegisterTx creates a pending registration together with its participants.
// The event row is locked so the capacity check and the insert see the same
// state; the partial unique index on (event_id, user_id) rejects a concurrent
// duplicate atomically even if the explicit check raced.
func (r *repository) RegisterTx(ctx context.Context, reg *model.Registration) (int64, int, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var event model.Event
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, capacity, approved, payment_timeout_minutes
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, reg.EventID).Scan(&event.ID, &event.Name, &event.Capacity, &event.Approved, &event.PaymentTimeoutMinutes)
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, ErrEventNotFound
	}
	if !event.Approved {
		_ = tx.Rollback()
		return 0, 0, ErrEventNotApproved
	}
	paymentTimeout := event.PaymentTimeoutMinutes

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND payment_status != 'expired'
	`, reg.EventID).Scan(&count)
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	if count >= event.Capacity {
		_ = tx.Rollback()
		return 0, 0, ErrEventFull
	}

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND payment_status != 'expired'
	`, reg.EventID, reg.UserID).Scan(&existing)
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, fmt.Errorf("failed to check duplicate registration: %w", err)
	}
	if existing > 0 {
		_ = tx.Rollback()
		return 0, 0, ErrDuplicateRegistration
	}

	var id int64
	reg.PaymentStatus = model.PaymentPending
	err = tx.QueryRowContext(ctx, `
		INSERT INTO registrations (event_id, user_id, payment_status, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`, reg.EventID, reg.UserID, reg.PaymentStatus).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		if strings.Contains(err.Error(), "duplicate key") {
			return 0, 0, ErrDuplicateRegistration
		}
		return 0, 0, fmt.Errorf("failed to create registration: %w", err)
	}

	for _, p := range reg.Participants {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO participants (registration_id, name, email, mobile, alt_mobile, college, branch, semester)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, p.Name, p.Email, p.Mobile, p.AltMobile, p.College, p.Branch, p.Semester); err != nil {
			_ = tx.Rollback()
			return 0, 0, fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, paymentTimeout, nil
}

const registrationColumns = `id, event_id, user_id, order_id, payment_id, signature, payment_status, created_at, updated_at`

func scanRegistration(row *sql.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&reg.OrderID,
		&reg.PaymentID,
		&reg.Signature,
		&reg.PaymentStatus,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to scan registration: %w", err)
	}
	return &reg, nil
}

func (r *repository) loadParticipants(ctx context.Context, reg *model.Registration) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, registration_id, name, email, mobile, alt_mobile, college, branch, semester
		FROM participants
		WHERE registration_id = $1
		ORDER BY id ASC
	`, reg.ID)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(
			&p.ID, &p.RegistrationID, &p.Name, &p.Email, &p.Mobile, &p.AltMobile,
			&p.College, &p.Branch, &p.Semester,
		); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		reg.Participants = append(reg.Participants, p)
	}
	return nil
}

func (r *repository) GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadParticipants(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// GetRegistrationByEventAndUser is the idempotency guard for the register
// flow: at most one non-expired registration exists per (event, user) pair.
func (r *repository) GetRegistrationByEventAndUser(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND payment_status != 'expired'
	`

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		return nil, err
	}
	if err := r.loadParticipants(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// GetRegistrationByOrderID resolves a client-reported payment confirmation to
// its registration. The order id is stored on the record itself, so the link
// survives session loss.
func (r *repository) GetRegistrationByOrderID(ctx context.Context, orderID string) (*model.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE order_id = $1`

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		return nil, err
	}
	if err := r.loadParticipants(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *repository) GetRegistrationsByUser(ctx context.Context, userID int64) ([]model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(
			&reg.ID,
			&reg.EventID,
			&reg.UserID,
			&reg.OrderID,
			&reg.PaymentID,
			&reg.Signature,
			&reg.PaymentStatus,
			&reg.CreatedAt,
			&reg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}

	for i := range regs {
		if err := r.loadParticipants(ctx, &regs[i]); err != nil {
			return nil, err
		}
	}

	return regs, nil
}

func (r *repository) AttachOrder(ctx context.Context, registrationID int64, orderID string) error {
	query := `
		UPDATE registrations
		SET order_id = $1, updated_at = NOW()
		WHERE id = $2 AND payment_status = 'pending'
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, orderID, registrationID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to attach order: %w", err)
	}
	return nil
}

// MarkPaidTx is a one-way latch. The pending -> paid update only matches rows
// still pending; once paid the stored confirmation can never be overwritten.
// Re-applying the same (payment id, signature) pair is a no-op that returns
// the current record, a different pair fails with ErrAlreadyPaid.
func (r *repository) MarkPaidTx(ctx context.Context, registrationID int64, paymentID, signature string) (*model.Registration, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var status, storedPaymentID string
	err = tx.QueryRowContext(ctx, `
		SELECT payment_status, payment_id
		FROM registrations
		WHERE id = $1
		FOR UPDATE
	`, registrationID).Scan(&status, &storedPaymentID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to select registration for payment: %w", err)
	}

	switch status {
	case model.PaymentExpired:
		_ = tx.Rollback()
		return nil, ErrRegistrationExpired
	case model.PaymentPaid:
		_ = tx.Rollback()
		if storedPaymentID == paymentID {
			return r.GetRegistrationByID(ctx, registrationID)
		}
		return nil, ErrAlreadyPaid
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE registrations
		SET payment_status = 'paid', payment_id = $1, signature = $2, updated_at = NOW()
		WHERE id = $3 AND payment_status = 'pending'
	`, paymentID, signature, registrationID)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to update registration status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetRegistrationByID(ctx, registrationID)
}

// ExpireIfUnpaidTx reaps a registration whose payment timeout elapsed.
// Returns false without changes when the registration was already paid or
// expired; the expired slot no longer counts against the (event, user) pair.
func (r *repository) ExpireIfUnpaidTx(ctx context.Context, registrationID int64) (bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var currentStatus string
	err = tx.QueryRowContext(ctx, `
		SELECT payment_status
		FROM registrations
		WHERE id = $1
		FOR UPDATE
	`, registrationID).Scan(&currentStatus)
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to select registration for expiry: %w", err)
	}

	if currentStatus != model.PaymentPending {
		_ = tx.Rollback()
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE registrations
		SET payment_status = 'expired', updated_at = NOW()
		WHERE id = $1
	`, registrationID); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to expire registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit expiry transaction: %w", err)
	}

	return true, nil
}
