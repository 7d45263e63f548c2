package model

// Planting / harvest approval states
const (
	ApprovalPending  = 0
	ApprovalApproved = 1
	ApprovalRejected = 2
)

// Overall product lifecycle codes
const (
	StatusPending   = 0 // awaiting planting approval
	StatusPlanting  = 1 // planting approved, growing
	StatusHarvested = 2 // harvested / in transit
	StatusOnShelf   = 3 // priced and listed for sale
	StatusSold      = 4 // deactivated, sold out
)

// Product is the mirror row derived from confirmed ledger actions. The
// ledger owns canonical trace history; this row exists so listings never
// have to walk the chain. Status fields are written only by the action
// service's transition table and are never deleted (ledger history is
// immutable).
type Product struct {
	BaseModel
	ProductID   string `gorm:"type:varchar(64);uniqueIndex;not null" json:"product_id" validate:"required"`
	ProductName string `gorm:"type:varchar(255);not null" json:"product_name" validate:"required"`
	FarmName    string `gorm:"type:varchar(255)" json:"farm_name"`
	FarmOwner   string `gorm:"type:varchar(255)" json:"farm_owner"`
	FarmPhone   string `gorm:"type:varchar(20);index" json:"farm_phone"` // Joins to User.Phone

	SeedSource string `gorm:"type:varchar(255)" json:"seed_source"`

	PlantingStatus int `gorm:"default:0" json:"planting_status"`
	HarvestStatus  int `gorm:"default:0" json:"harvest_status"`
	StatusCode     int `gorm:"default:0" json:"status_code"`

	PlantingImageUrl string `gorm:"type:text" json:"planting_image_url"`
	PlantingDate     int64  `gorm:"default:0" json:"planting_date"`
	HarvestDate      int64  `gorm:"default:0" json:"harvest_date"`

	TransporterName string `gorm:"type:varchar(255)" json:"transporter_name"`
	IsReceived      bool   `gorm:"default:false" json:"is_received"`
	IsDelivered     bool   `gorm:"default:false" json:"is_delivered"`

	Price    int64  `gorm:"default:0" json:"price"` // 0 = not yet priced
	Quantity int64  `gorm:"default:0" json:"quantity"`
	Unit     string `gorm:"type:varchar(20)" json:"unit"`
	Quality  string `gorm:"type:varchar(50)" json:"quality"`
}

// StatusText renders the farmer-facing lifecycle label. Later stages win
// over earlier ones.
func (p *Product) StatusText() string {
	switch {
	case p.StatusCode == StatusSold:
		return "Sold out"
	case p.StatusCode == StatusOnShelf:
		return "On shelf"
	case p.HarvestStatus == ApprovalRejected:
		return "Harvest rejected"
	case p.HarvestStatus == ApprovalApproved:
		return "Harvested"
	case p.PlantingStatus == ApprovalRejected:
		return "Planting rejected"
	case p.PlantingStatus == ApprovalApproved:
		return "Growing"
	default:
		return "Awaiting planting approval"
	}
}

// DeriveStatusCode recomputes the overall code from the underlying status
// fields. statusCode is a function of the other fields; reconciliation uses
// this to rebuild a drifted mirror row from ledger truth.
func DeriveStatusCode(plantingStatus, harvestStatus int, harvestDate, price int64, active bool) int {
	switch {
	case !active:
		return StatusSold
	case price > 0:
		return StatusOnShelf
	case harvestDate > 0:
		return StatusHarvested
	case plantingStatus == ApprovalApproved:
		return StatusPlanting
	default:
		return StatusPending
	}
}
