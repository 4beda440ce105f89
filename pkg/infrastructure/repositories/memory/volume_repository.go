package memory

import (
	"context"
	"sync"

	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/domain/repositories"
)

type volumeKey struct {
	organizationID string
	modelYear      entities.ModelYear
	vehicleClass   entities.VehicleClass
}

// VolumeRepository provides in-memory supply volume storage. There is one
// volume per organization, model year and vehicle class.
type VolumeRepository struct {
	mu      sync.RWMutex
	volumes []entities.SupplyVolume
	index   map[volumeKey]int
}

// NewVolumeRepository creates a new in-memory volume repository
func NewVolumeRepository() *VolumeRepository {
	return &VolumeRepository{
		volumes: []entities.SupplyVolume{},
		index:   make(map[volumeKey]int),
	}
}

// Verify interface compliance
var _ repositories.VolumeRepository = (*VolumeRepository)(nil)

// SupplyVolumes returns the volumes an organization supplied in a model year
func (r *VolumeRepository) SupplyVolumes(
	_ context.Context,
	organizationID string,
	modelYear entities.ModelYear,
) ([]entities.SupplyVolume, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var volumes []entities.SupplyVolume
	for _, volume := range r.volumes {
		if volume.OrganizationID == organizationID && volume.ModelYear == modelYear {
			volumes = append(volumes, volume)
		}
	}
	return volumes, nil
}

// AddSupplyVolumes upserts volumes; a later row for the same key replaces
// the earlier one.
func (r *VolumeRepository) AddSupplyVolumes(_ context.Context, volumes []entities.SupplyVolume) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, volume := range volumes {
		key := volumeKey{volume.OrganizationID, volume.ModelYear, volume.VehicleClass}
		if at, exists := r.index[key]; exists {
			r.volumes[at] = volume
			continue
		}
		r.index[key] = len(r.volumes)
		r.volumes = append(r.volumes, volume)
	}
	return nil
}
