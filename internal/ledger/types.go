package ledger

import "math/big"

// CareLog is one care event as stored on the ledger.
type CareLog struct {
	CareType     string
	Description  string
	CareDate     *big.Int
	CareImageUrl string
	ActorPhone   string
	ActorName    string
}

// TraceInfo is the contract's canonical per-product record. Field names
// mirror the ABI tuple components so bound calls unpack directly into it.
type TraceInfo struct {
	ProductId   string
	ProductName string
	FarmName    string
	SeedOrigin  string

	CreatorPhone string
	CreatorName  string

	PlantingDate       *big.Int
	HarvestDate        *big.Int
	ReceiveDate        *big.Int
	DeliveryDate       *big.Int
	ManagerReceiveDate *big.Int

	PlantingImageUrl       string
	HarvestImageUrl        string
	ReceiveImageUrl        string
	DeliveryImageUrl       string
	ManagerReceiveImageUrl string

	PlantingStatus uint8
	HarvestStatus  uint8

	TransporterName string
	TransportInfo   string

	Quantity *big.Int
	Quality  string
	Price    *big.Int

	Active bool

	CareLogs []CareLog
}

// Exists reports whether the trace refers to a real product. The contract
// returns a zero-valued struct for unknown ids.
func (t *TraceInfo) Exists() bool {
	return t != nil && t.ProductId != "" &&
		t.ProductId != "0x0000000000000000000000000000000000000000"
}
