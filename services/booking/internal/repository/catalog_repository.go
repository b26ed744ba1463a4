package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
)

// CatalogRepository reads the tenant catalog and payment policy.
type CatalogRepository interface {
	GetDestination(ctx context.Context, tenantID, destinationID string) (*domain.Destination, error)
	GetBookingConfig(ctx context.Context, tenantID string) (domain.BookingConfig, error)
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) GetDestination(ctx context.Context, tenantID, destinationID string) (*domain.Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	const q = `SELECT id, tenant_id, name, base_price FROM destinations WHERE id=$1 AND tenant_id=$2`
	var d domain.Destination
	err := r.pool.QueryRow(ctx, q, destinationID, tenantID).Scan(&d.ID, &d.TenantID, &d.Name, &d.BasePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDestinationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load destination: %w", err)
	}

	if d.Departures, err = r.departures(ctx, d.ID); err != nil {
		return nil, err
	}
	if d.Hotels, err = r.hotels(ctx, d.ID); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *catalogRepository) departures(ctx context.Context, destinationID string) ([]domain.Departure, error) {
	const q = `SELECT id, departure_date, return_date, status, price, spots_left
		FROM departures WHERE destination_id=$1 ORDER BY departure_date`
	rows, err := r.pool.Query(ctx, q, destinationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query departures: %w", err)
	}
	defer rows.Close()

	var out []domain.Departure
	for rows.Next() {
		var dep domain.Departure
		if err := rows.Scan(&dep.ID, &dep.Date, &dep.ReturnDate, &dep.Status, &dep.Price, &dep.SpotsLeft); err != nil {
			return nil, fmt.Errorf("failed to scan departure: %w", err)
		}
		out = append(out, dep)
	}
	return out, rows.Err()
}

func (r *catalogRepository) hotels(ctx context.Context, destinationID string) ([]domain.Hotel, error) {
	const q = `SELECT h.id, h.name, h.supplement, r.id, r.name, r.supplement
		FROM hotels h LEFT JOIN rooms r ON r.hotel_id = h.id
		WHERE h.destination_id=$1 ORDER BY h.position, h.id, r.position, r.id`
	rows, err := r.pool.Query(ctx, q, destinationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query hotels: %w", err)
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		var (
			h                domain.Hotel
			roomID, roomName *string
			roomSupplement   *int64
		)
		if err := rows.Scan(&h.ID, &h.Name, &h.Supplement, &roomID, &roomName, &roomSupplement); err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].ID != h.ID {
			out = append(out, h)
		}
		if roomID != nil {
			room := domain.Room{ID: *roomID}
			if roomName != nil {
				room.Name = *roomName
			}
			if roomSupplement != nil {
				room.Supplement = *roomSupplement
			}
			last := &out[len(out)-1]
			last.Rooms = append(last.Rooms, room)
		}
	}
	return out, rows.Err()
}

// GetBookingConfig falls back to DefaultBookingConfig for tenants that never
// configured payments.
func (r *catalogRepository) GetBookingConfig(ctx context.Context, tenantID string) (domain.BookingConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	const q = `SELECT booking_model, deposit_type, deposit_value,
		payment_deadline_type, payment_deadline_days, charges_enabled
		FROM tenant_booking_config WHERE tenant_id=$1`
	var cfg domain.BookingConfig
	err := r.pool.QueryRow(ctx, q, tenantID).Scan(
		&cfg.BookingModel, &cfg.DepositType, &cfg.DepositValue,
		&cfg.PaymentDeadlineType, &cfg.PaymentDeadlineDays, &cfg.ChargesEnabled,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultBookingConfig(), nil
	}
	if err != nil {
		return domain.BookingConfig{}, fmt.Errorf("failed to load booking config: %w", err)
	}
	return cfg, nil
}

// DefaultBookingConfig takes requests without charging.
func DefaultBookingConfig() domain.BookingConfig {
	return domain.BookingConfig{BookingModel: domain.ModelRequestOnly}
}
