package repositories

import (
	"context"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// VolumeRepository provides access to supply volumes
type VolumeRepository interface {
	SupplyVolumes(ctx context.Context, organizationID string, modelYear entities.ModelYear) ([]entities.SupplyVolume, error)
	AddSupplyVolumes(ctx context.Context, volumes []entities.SupplyVolume) error
}
