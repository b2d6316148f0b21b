package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/store"
	"github.com/fleetyard/fleetyard/pkg/idx"
)

// VehicleService covers the vehicle catalogue. License plates are unique
// across the fleet; violations surface as ErrDuplicatePlate.
type VehicleService struct {
	Store store.Store
}

// VehicleInput carries the caller-supplied vehicle fields for create and
// update operations.
type VehicleInput struct {
	Brand        string
	Model        string
	Year         int
	Color        string
	LicensePlate string
	PriceCents   int64
	Available    bool
}

func (s *VehicleService) GetVehicle(ctx context.Context, id string) (domain.Vehicle, error) {
	return s.Store.Vehicles().GetVehicleByID(ctx, id)
}

func (s *VehicleService) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return s.Store.Vehicles().ListVehicles(ctx)
}

func (s *VehicleService) ListAvailableVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return s.Store.Vehicles().ListAvailableVehicles(ctx)
}

// SearchVehicles filters by brand and model substring, either of which may
// be empty.
func (s *VehicleService) SearchVehicles(ctx context.Context, brand, model string) ([]domain.Vehicle, error) {
	return s.Store.Vehicles().SearchVehicles(ctx, strings.TrimSpace(brand), strings.TrimSpace(model))
}

// CreateVehicle registers a new vehicle owned by the creating client.
func (s *VehicleService) CreateVehicle(ctx context.Context, createdBy string, in VehicleInput) (domain.Vehicle, error) {
	if err := validateVehicleInput(in); err != nil {
		return domain.Vehicle{}, err
	}

	plate := normalizePlate(in.LicensePlate)
	exists, err := s.Store.Vehicles().LicensePlateExists(ctx, plate)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("check license plate: %w", err)
	}
	if exists {
		return domain.Vehicle{}, ErrDuplicatePlate
	}

	now := time.Now()
	vehicle := domain.Vehicle{
		ID:           idx.New().String(),
		Brand:        strings.TrimSpace(in.Brand),
		Model:        strings.TrimSpace(in.Model),
		Year:         in.Year,
		Color:        strings.TrimSpace(in.Color),
		LicensePlate: plate,
		PriceCents:   in.PriceCents,
		Available:    in.Available,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Vehicles().CreateVehicle(ctx, vehicle); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Vehicle{}, ErrDuplicatePlate
		}
		return domain.Vehicle{}, fmt.Errorf("create vehicle: %w", err)
	}

	slog.InfoContext(ctx, "vehicle created", "vehicle_id", vehicle.ID, "plate", vehicle.LicensePlate)
	return vehicle, nil
}

// UpdateVehicle replaces the mutable vehicle fields. Changing the plate to
// one another vehicle holds fails with ErrDuplicatePlate.
func (s *VehicleService) UpdateVehicle(ctx context.Context, id string, in VehicleInput) (domain.Vehicle, error) {
	if err := validateVehicleInput(in); err != nil {
		return domain.Vehicle{}, err
	}

	vehicle, err := s.Store.Vehicles().GetVehicleByID(ctx, id)
	if err != nil {
		return domain.Vehicle{}, err
	}

	plate := normalizePlate(in.LicensePlate)
	if plate != vehicle.LicensePlate {
		exists, err := s.Store.Vehicles().LicensePlateExists(ctx, plate)
		if err != nil {
			return domain.Vehicle{}, fmt.Errorf("check license plate: %w", err)
		}
		if exists {
			return domain.Vehicle{}, ErrDuplicatePlate
		}
	}

	vehicle.Brand = strings.TrimSpace(in.Brand)
	vehicle.Model = strings.TrimSpace(in.Model)
	vehicle.Year = in.Year
	vehicle.Color = strings.TrimSpace(in.Color)
	vehicle.LicensePlate = plate
	vehicle.PriceCents = in.PriceCents
	vehicle.Available = in.Available
	vehicle.UpdatedAt = time.Now()

	if err := s.Store.Vehicles().UpdateVehicle(ctx, vehicle); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Vehicle{}, ErrDuplicatePlate
		}
		return domain.Vehicle{}, err
	}

	slog.InfoContext(ctx, "vehicle updated", "vehicle_id", id)
	return vehicle, nil
}

func (s *VehicleService) DeleteVehicle(ctx context.Context, id string) error {
	if err := s.Store.Vehicles().DeleteVehicle(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "vehicle deleted", "vehicle_id", id)
	return nil
}

func validateVehicleInput(in VehicleInput) error {
	switch {
	case strings.TrimSpace(in.Brand) == "":
		return errors.New("brand is required")
	case strings.TrimSpace(in.Model) == "":
		return errors.New("model is required")
	case normalizePlate(in.LicensePlate) == "":
		return errors.New("license plate is required")
	case in.Year < 1900 || in.Year > time.Now().Year()+1:
		return fmt.Errorf("year %d out of range", in.Year)
	case in.PriceCents < 0:
		return errors.New("price must not be negative")
	}
	return nil
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
