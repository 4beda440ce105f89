package compliance

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// classificationWindow is the number of prior model years averaged
const classificationWindow = 3

// ClassifySupplier derives the supplier class from the supplied volumes of
// the prior model years, most recent first. Only the first three volumes are
// averaged; a supplier with no history is small.
func ClassifySupplier(volumes []decimal.Decimal, thresholds entities.SupplierThresholds) entities.SupplierClass {
	if len(volumes) == 0 {
		return entities.Small
	}
	if len(volumes) > classificationWindow {
		volumes = volumes[:classificationWindow]
	}

	average := decimal.Avg(volumes[0], volumes[1:]...)
	switch {
	case average.LessThan(thresholds.Medium):
		return entities.Small
	case average.LessThan(thresholds.Large):
		return entities.Medium
	default:
		return entities.Large
	}
}
