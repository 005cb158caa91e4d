package listing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Availability is the derived sellable stock for one listing
type Availability struct {
	ListingID uuid.UUID
	Available int64
	// Unmapped is true when the listing has no enabled product
	// mappings, so no stock can be derived for it.
	Unmapped bool
}

// ComputeAvailability derives how many channel sales a listing can
// fulfill from current product stock. Each enabled mapping contributes
// floor(stock / unitsPerSale); the listing's availability is the
// minimum across mappings, since one sale consumes every mapped
// product. Products missing from the stocks map count as zero.
func ComputeAvailability(l *ChannelListing, stocks map[uuid.UUID]decimal.Decimal) Availability {
	result := Availability{ListingID: l.ID}

	enabled := l.EnabledMappings()
	if len(enabled) == 0 {
		result.Unmapped = true
		return result
	}

	min := int64(-1)
	for _, m := range enabled {
		stock := stocks[m.ProductID]
		ratio := stock.Div(decimal.NewFromInt(m.UnitsPerSale)).Floor().IntPart()
		if ratio < 0 {
			ratio = 0
		}
		if min < 0 || ratio < min {
			min = ratio
		}
	}

	result.Available = min
	return result
}
