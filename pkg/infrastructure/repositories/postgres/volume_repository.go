package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/domain/repositories"
)

// VolumeRepository persists supply volumes
type VolumeRepository struct {
	db *sql.DB
}

// NewVolumeRepository constructs a repository.
func NewVolumeRepository(db *sql.DB) *VolumeRepository {
	return &VolumeRepository{db: db}
}

var _ repositories.VolumeRepository = (*VolumeRepository)(nil)

// SupplyVolumes lists the volumes supplied in a model year.
func (r *VolumeRepository) SupplyVolumes(
	ctx context.Context,
	organizationID string,
	modelYear entities.ModelYear,
) ([]entities.SupplyVolume, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("volume repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT vehicle_class, volume
FROM zev_supply_volumes
WHERE organization_id = $1 AND model_year = $2
ORDER BY vehicle_class ASC`, organizationID, int(modelYear))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var volumes []entities.SupplyVolume
	for rows.Next() {
		volume := entities.SupplyVolume{OrganizationID: organizationID, ModelYear: modelYear}
		var vehicleClass string
		if err := rows.Scan(&vehicleClass, &volume.Volume); err != nil {
			return nil, err
		}
		if volume.VehicleClass, err = entities.ParseVehicleClass(vehicleClass); err != nil {
			return nil, err
		}
		volumes = append(volumes, volume)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return volumes, nil
}

// AddSupplyVolumes upserts volumes.
func (r *VolumeRepository) AddSupplyVolumes(ctx context.Context, volumes []entities.SupplyVolume) error {
	if r == nil || r.db == nil {
		return errors.New("volume repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, v := range volumes {
		_, err := tx.ExecContext(ctx, `
INSERT INTO zev_supply_volumes (organization_id, model_year, vehicle_class, volume)
VALUES ($1,$2,$3,$4)
ON CONFLICT (organization_id, model_year, vehicle_class) DO UPDATE SET volume = EXCLUDED.volume`,
			v.OrganizationID, int(v.ModelYear), v.VehicleClass.String(), v.Volume)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
