package emulator

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/migration"
	"github.com/julianstephens/dockbook/internal/models"
	"github.com/julianstephens/dockbook/migrations"
)

var errNotFound = errors.New("not found")

// Store is the emulator's SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens path (":memory:" for a throwaway database) and migrates it.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	if _, err := migration.NewRunner(db, subFS).Apply(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func hashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}

type userRow struct {
	models.User
	passwordHash string
}

func (s *Store) scanUser(row *sql.Row) (userRow, error) {
	var u userRow
	var supplierID, plantID sql.NullInt64
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.passwordHash, &role, &supplierID, &plantID, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return userRow{}, errNotFound
	}
	if err != nil {
		return userRow{}, err
	}
	u.Role = models.Role(role)
	u.SupplierID = supplierID.Int64
	u.PlantID = plantID.Int64
	return u, nil
}

const userColumns = `u.id, u.email, u.password_hash, u.role, u.supplier_id, u.plant_id, u.is_active`

func (s *Store) userByEmail(ctx context.Context, email string) (userRow, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.email = ?`, email))
}

func (s *Store) userByToken(ctx context.Context, token string) (userRow, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN tokens t ON t.user_id = u.id WHERE t.token = ?`, token))
}

func (s *Store) issueToken(ctx context.Context, userID int64, now time.Time) (string, error) {
	tok := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (token, user_id, created_at) VALUES (?, ?, ?)`,
		tok, userID, now.UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return tok, nil
}

const apptColumns = `id, appointment_number, date, time, time_end, purchase_order, truck_plate,
	driver_name, status, motivo_reagendamento, supplier_id, plant_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(sc scanner) (models.Appointment, error) {
	var a models.Appointment
	var date, start, end, status string
	var reason sql.NullString
	var plantID sql.NullInt64
	err := sc.Scan(&a.ID, &a.AppointmentNumber, &date, &start, &end, &a.PurchaseOrder, &a.TruckPlate,
		&a.DriverName, &status, &reason, &a.SupplierID, &plantID)
	if err != nil {
		return models.Appointment{}, err
	}
	if a.Date, err = calendar.Parse(date); err != nil {
		return models.Appointment{}, err
	}
	if a.Time, err = calendar.ParseTime(start); err != nil {
		return models.Appointment{}, err
	}
	if a.TimeEnd, err = calendar.ParseTime(end); err != nil {
		return models.Appointment{}, err
	}
	a.Status = models.Status(status)
	a.RescheduleReason = reason.String
	a.PlantID = plantID.Int64
	return a, nil
}

// listRange returns appointments dated from..to inclusive, ordered by date and time.
func (s *Store) listRange(ctx context.Context, from, to calendar.Date, plantID int64) ([]models.Appointment, error) {
	q := `SELECT ` + apptColumns + ` FROM appointments WHERE date >= ? AND date <= ?`
	args := []any{from.Wire(), to.Wire()}
	if plantID > 0 {
		q += ` AND plant_id = ?`
		args = append(args, plantID)
	}
	q += ` ORDER BY date, time`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	out := []models.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) get(ctx context.Context, id int64) (models.Appointment, error) {
	a, err := scanAppointment(s.db.QueryRowContext(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Appointment{}, errNotFound
	}
	return a, err
}

// overlaps reports whether [start, end) on d intersects a live appointment
// other than exclude.
func (s *Store) overlaps(ctx context.Context, d calendar.Date, start, end calendar.TimeOfDay, exclude int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM appointments
		WHERE date = ? AND id != ? AND status != ?
		  AND time < ? AND time_end > ?`,
		d.Wire(), exclude, string(models.StatusCancelled), end.Wire(), start.Wire(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return n > 0, nil
}

func (s *Store) insert(ctx context.Context, a models.Appointment, now time.Time) (models.Appointment, error) {
	a.AppointmentNumber = "AG-" + uuid.NewString()[:8]
	if a.Status == "" {
		a.Status = models.StatusScheduled
	}
	ts := now.UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO appointments (appointment_number, date, time, time_end, purchase_order, truck_plate,
			driver_name, status, supplier_id, plant_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.AppointmentNumber, a.Date.Wire(), a.Time.Wire(), a.TimeEnd.Wire(), a.PurchaseOrder, a.TruckPlate,
		a.DriverName, string(a.Status), a.SupplierID, nullInt(a.PlantID), ts, ts)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("failed to insert appointment: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return models.Appointment{}, err
	}
	return a, nil
}

func (s *Store) update(ctx context.Context, a models.Appointment, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE appointments SET date = ?, time = ?, time_end = ?, purchase_order = ?, truck_plate = ?,
			driver_name = ?, status = ?, motivo_reagendamento = ?, updated_at = ?
		WHERE id = ?`,
		a.Date.Wire(), a.Time.Wire(), a.TimeEnd.Wire(), a.PurchaseOrder, a.TruckPlate,
		a.DriverName, string(a.Status), nullString(a.RescheduleReason), now.UTC().Format(time.RFC3339), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

// setStatus is used for cancellation and by tests to move appointments
// through the plant-side statuses.
func (s *Store) setStatus(ctx context.Context, id int64, st models.Status, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?`,
		string(st), now.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// SchemaStatus reports the applied and the latest known schema version of the
// database at path without migrating it.
func SchemaStatus(ctx context.Context, path string) (current, latest int, err error) {
	if _, err := os.Stat(path); err != nil {
		return 0, 0, fmt.Errorf("database not found: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	runner := migration.NewRunner(db, subFS)
	if current, err = runner.CurrentVersion(ctx); err != nil {
		return 0, 0, err
	}
	all, err := runner.Migrations()
	if err != nil {
		return 0, 0, err
	}
	if len(all) > 0 {
		latest = all[len(all)-1].Version
	}
	return current, latest, nil
}
