package model

// Action is a whitelisted business operation. The set is closed on purpose:
// dispatch is a switch over these tags, never a dynamic registry, so
// arbitrary method invocation on the relayer signer is impossible.
type Action string

const (
	ActionAddProduct        Action = "addProduct"
	ActionLogCare           Action = "logCare"
	ActionHarvestProduct    Action = "harvestProduct"
	ActionApprovePlanting   Action = "approvePlanting"
	ActionRejectPlanting    Action = "rejectPlanting"
	ActionApproveHarvest    Action = "approveHarvest"
	ActionRejectHarvest     Action = "rejectHarvest"
	ActionUpdateReceive     Action = "updateReceive"
	ActionUpdateDelivery    Action = "updateDelivery"
	ActionUpdateManagerInfo Action = "updateManagerInfo"
	ActionDeactivateProduct Action = "deactivateProduct"
)

// Valid reports whether a is a whitelisted action tag.
func (a Action) Valid() bool {
	switch a {
	case ActionAddProduct, ActionLogCare, ActionHarvestProduct,
		ActionApprovePlanting, ActionRejectPlanting,
		ActionApproveHarvest, ActionRejectHarvest,
		ActionUpdateReceive, ActionUpdateDelivery,
		ActionUpdateManagerInfo, ActionDeactivateProduct:
		return true
	}
	return false
}

// ActionRequest is the transient submit-action command. The wire format is
// flat: {"action": "...", "productId": "...", ...}.
type ActionRequest struct {
	Action Action `json:"action" validate:"required"`
	ActionData
}

// ActionData holds the union of per-action payload fields. Which fields are
// read depends on the tag; the dispatcher substitutes documented defaults
// for optional ones.
type ActionData struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	FarmName    string `json:"farmName"`

	PlantingDate     int64  `json:"plantingDate"`
	PlantingImageUrl string `json:"plantingImageUrl"`
	SeedOrigin       string `json:"seedOrigin"`
	SeedSource       string `json:"seedSource"` // legacy alias for SeedOrigin

	CareType     string `json:"careType"`
	Description  string `json:"description"`
	CareDate     int64  `json:"careDate"`
	CareImageUrl string `json:"careImageUrl"`

	HarvestDate     int64  `json:"harvestDate"`
	HarvestImageUrl string `json:"harvestImageUrl"`
	Quantity        int64  `json:"quantity"`
	Unit            string `json:"unit"`
	Quality         string `json:"quality"`

	TransporterName  string `json:"transporterName"`
	ReceiveDate      int64  `json:"receiveDate"`
	ReceiveImageUrl  string `json:"receiveImageUrl"`
	TransportInfo    string `json:"transportInfo"`
	DeliveryDate     int64  `json:"deliveryDate"`
	DeliveryImageUrl string `json:"deliveryImageUrl"`

	ManagerReceiveDate     int64  `json:"managerReceiveDate"`
	ManagerReceiveImageUrl string `json:"managerReceiveImageUrl"`
	Price                  int64  `json:"price"`
}

// Seed returns the seed origin, honoring the legacy field name.
func (d *ActionData) Seed() string {
	if d.SeedOrigin != "" {
		return d.SeedOrigin
	}
	return d.SeedSource
}
