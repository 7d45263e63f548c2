package service

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"go-agritrace/internal/apperr"
	"go-agritrace/internal/ledger"
	"go-agritrace/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shelvedTrace(pid, name, farm, phone string, price int64) *ledger.TraceInfo {
	return &ledger.TraceInfo{
		ProductId:        pid,
		ProductName:      name,
		FarmName:         farm,
		CreatorPhone:     phone,
		PlantingDate:     big.NewInt(1700000000),
		PlantingImageUrl: "https://img/" + pid + "/planting.jpg",
		Price:            big.NewInt(price),
		Active:           true,
	}
}

func newScannerFixture(reader *fakeReader, cfg ScanConfig) (*productService, *[]time.Duration) {
	sleeps := &[]time.Duration{}
	svc := &productService{
		reader:      reader,
		productRepo: newFakeProductRepo(),
		userRepo:    newFakeUserRepo(),
		scanDelay:   cfg.Delay,
		scanLimit:   cfg.Limit,
		sleep:       func(d time.Duration) { *sleeps = append(*sleeps, d) },
	}
	return svc, sleeps
}

func TestOnShelfScansNewestFirstAndFiltersUnpriced(t *testing.T) {
	reader := &fakeReader{
		nextID: 5,
		pids:   map[int64]string{1: "P001", 2: "P002", 3: "P003", 4: "P004"},
		traces: map[string]*ledger.TraceInfo{
			"P001": shelvedTrace("P001", "Rice", "Green Farm", "0900000001", 0), // unpriced
			"P002": shelvedTrace("P002", "Mango", "Sunny Farm", "0900000002", 300),
			"P004": shelvedTrace("P004", "Durian", "Hill Farm", "0900000004", 500),
		},
		traceErrs: map[string]error{"P003": errors.New("rpc timeout")},
	}
	svc, sleeps := newScannerFixture(reader, ScanConfig{Delay: 200 * time.Millisecond, Limit: 10})

	items, err := svc.OnShelf(context.Background())
	require.NoError(t, err)

	// Newest first, the failed index skipped, the unpriced one filtered.
	require.Len(t, items, 2)
	assert.Equal(t, "P004", items[0].ID)
	assert.Equal(t, int64(500), items[0].Price)
	assert.Equal(t, "P002", items[1].ID)
	assert.Equal(t, int64(300), items[1].Price)

	// One pause before the index read, then two per scanned entry.
	require.Len(t, *sleeps, 9)
	for _, d := range *sleeps {
		assert.Equal(t, 200*time.Millisecond, d)
	}
}

func TestOnShelfStopsAtLimit(t *testing.T) {
	reader := &fakeReader{
		nextID: 4,
		pids:   map[int64]string{1: "P001", 2: "P002", 3: "P003"},
		traces: map[string]*ledger.TraceInfo{
			"P001": shelvedTrace("P001", "Rice", "Green Farm", "0900000001", 100),
			"P002": shelvedTrace("P002", "Mango", "Sunny Farm", "0900000002", 200),
			"P003": shelvedTrace("P003", "Durian", "Hill Farm", "0900000003", 300),
		},
	}
	svc, sleeps := newScannerFixture(reader, ScanConfig{Delay: time.Millisecond, Limit: 1})

	items, err := svc.OnShelf(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "P003", items[0].ID, "the newest priced product wins the single slot")
	assert.Len(t, *sleeps, 3, "the scan stops reading once the cap is reached")
}

func TestOnShelfEmptyLedger(t *testing.T) {
	svc, _ := newScannerFixture(&fakeReader{nextID: 1}, ScanConfig{Delay: time.Millisecond, Limit: 10})

	items, err := svc.OnShelf(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOnShelfIndexReadFailure(t *testing.T) {
	reader := &fakeReader{nextErr: errors.New("rpc unavailable")}
	svc, _ := newScannerFixture(reader, ScanConfig{Delay: time.Millisecond, Limit: 10})

	_, err := svc.OnShelf(context.Background())
	assert.Equal(t, apperr.KindLedgerRead, apperr.KindOf(err))
}

func TestOnShelfEnrichesFromMirror(t *testing.T) {
	reader := &fakeReader{
		nextID: 2,
		pids:   map[int64]string{1: "P001"},
		traces: map[string]*ledger.TraceInfo{
			"P001": shelvedTrace("P001", "Rice", "Green Farm", "0900000001", 150),
		},
	}
	svc, _ := newScannerFixture(reader, ScanConfig{Delay: time.Millisecond, Limit: 10})

	// The mirror knows a fresher product name and the farmer's company.
	svc.productRepo.(*fakeProductRepo).products["P001"] = &model.Product{
		ProductID:   "P001",
		ProductName: "Organic Jasmine Rice",
	}
	farmer := &model.User{FullName: "Alice", Phone: "0900000001", CompanyName: "Green Co-op"}
	svc.userRepo.(*fakeUserRepo).add(farmer)

	items, err := svc.OnShelf(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Organic Jasmine Rice", items[0].Name)
	assert.Equal(t, "Green Co-op", items[0].Farm)
}

func TestOnShelfFallsBackToLedgerNames(t *testing.T) {
	reader := &fakeReader{
		nextID: 2,
		pids:   map[int64]string{1: "P001"},
		traces: map[string]*ledger.TraceInfo{
			"P001": shelvedTrace("P001", "Rice", "Green Farm", "0900000001", 150),
		},
	}
	svc, _ := newScannerFixture(reader, ScanConfig{Delay: time.Millisecond, Limit: 10})

	items, err := svc.OnShelf(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Rice", items[0].Name)
	assert.Equal(t, "Green Farm", items[0].Farm)
}

func TestDetailMergesTraceAndMirror(t *testing.T) {
	trace := shelvedTrace("P001", "Rice", "Green Farm", "0900000001", 450)
	trace.CreatorName = "Alice Nguyen"
	trace.SeedOrigin = "Certified nursery"
	trace.HarvestDate = big.NewInt(1700000500)
	trace.PlantingStatus = uint8(model.ApprovalApproved)
	trace.HarvestStatus = uint8(model.ApprovalApproved)
	trace.CareLogs = []ledger.CareLog{
		{CareType: "watering", Description: "daily", CareDate: big.NewInt(1700000100)},
	}

	reader := &fakeReader{
		nextID: 2,
		traces: map[string]*ledger.TraceInfo{"P001": trace},
		careLogs: map[string][]ledger.CareLog{
			"P001": {
				{CareType: "watering", Description: "daily", CareDate: big.NewInt(1700000100)},
				{CareType: "fertilizing", Description: "weekly", CareDate: big.NewInt(1700000200)},
			},
		},
	}
	svc, _ := newScannerFixture(reader, ScanConfig{Delay: time.Millisecond, Limit: 10})
	svc.productRepo.(*fakeProductRepo).products["P001"] = &model.Product{
		ProductID:   "P001",
		ProductName: "Organic Jasmine Rice",
		Unit:        "kg",
	}

	detail, err := svc.Detail(context.Background(), "P001")
	require.NoError(t, err)

	assert.Equal(t, "P001", detail.ID)
	assert.Equal(t, "Organic Jasmine Rice", detail.Name, "mirror name overrides the ledger")
	assert.Equal(t, "kg", detail.Unit)
	assert.Equal(t, "Alice Nguyen", detail.Farm.Owner)
	assert.Equal(t, "Certified nursery", detail.Farm.Seed)
	assert.Equal(t, int64(1700000500), detail.Dates.Harvest)
	assert.Equal(t, int64(450), detail.Retailer.Price)
	require.Len(t, detail.CareLogs, 2)
	assert.Equal(t, "fertilizing", detail.CareLogs[1].Type)
}

func TestDetailUnknownProduct(t *testing.T) {
	svc, _ := newScannerFixture(&fakeReader{nextID: 1}, ScanConfig{Delay: time.Millisecond, Limit: 10})

	_, err := svc.Detail(context.Background(), "GHOST")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestReconcileRebuildsMirrorFromLedger(t *testing.T) {
	trace := shelvedTrace("P001", "Rice", "Green Farm", "0900000001", 450)
	trace.CreatorName = "Alice Nguyen"
	trace.HarvestDate = big.NewInt(1700000500)
	trace.ReceiveDate = big.NewInt(1700000600)
	trace.DeliveryDate = big.NewInt(1700000700)
	trace.PlantingStatus = uint8(model.ApprovalApproved)
	trace.HarvestStatus = uint8(model.ApprovalApproved)
	trace.TransporterName = "FastHaul"
	trace.Quantity = big.NewInt(120)

	reader := &fakeReader{traces: map[string]*ledger.TraceInfo{"P001": trace}}
	svc, _ := newScannerFixture(reader, ScanConfig{Delay: time.Millisecond, Limit: 10})

	// The mirror drifted: a mirror write failed after ledger success.
	repo := svc.productRepo.(*fakeProductRepo)
	repo.products["P001"] = &model.Product{
		ProductID:  "P001",
		StatusCode: model.StatusPending,
	}

	product, err := svc.Reconcile(context.Background(), "P001")
	require.NoError(t, err)

	assert.Equal(t, model.StatusOnShelf, product.StatusCode)
	assert.Equal(t, int64(450), product.Price)
	assert.Equal(t, "FastHaul", product.TransporterName)
	assert.True(t, product.IsReceived)
	assert.True(t, product.IsDelivered)
	assert.Equal(t, int64(120), product.Quantity)
	assert.Equal(t, 1, repo.upserts)
	assert.Equal(t, model.StatusOnShelf, repo.products["P001"].StatusCode)
}

func TestReconcileUnknownProduct(t *testing.T) {
	svc, _ := newScannerFixture(&fakeReader{}, ScanConfig{Delay: time.Millisecond, Limit: 10})

	_, err := svc.Reconcile(context.Background(), "GHOST")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestModeratedRequestsSplitsByStage(t *testing.T) {
	approved := shelvedTrace("P001", "Rice", "Green Farm", "0900000001", 0)
	approved.PlantingStatus = uint8(model.ApprovalApproved)

	rejected := shelvedTrace("P002", "Mango", "Sunny Farm", "0900000002", 0)
	rejected.PlantingStatus = uint8(model.ApprovalApproved)
	rejected.HarvestStatus = uint8(model.ApprovalRejected)
	rejected.HarvestImageUrl = "https://img/P002/harvest.jpg"

	pending := shelvedTrace("P003", "Durian", "Hill Farm", "0900000003", 0)

	reader := &fakeReader{
		nextID: 4,
		pids:   map[int64]string{1: "P001", 2: "P002", 3: "P003"},
		traces: map[string]*ledger.TraceInfo{
			"P001": approved, "P002": rejected, "P003": pending,
		},
	}
	svc, _ := newScannerFixture(reader, ScanConfig{Delay: time.Millisecond, Limit: 10})

	out, err := svc.ModeratedRequests(context.Background())
	require.NoError(t, err)

	require.Len(t, out.Planting, 2, "both reviewed plantings appear")
	assert.Equal(t, "P001", out.Planting[0].ID)
	assert.Equal(t, "Approved", out.Planting[0].Status)

	require.Len(t, out.Harvest, 1)
	assert.Equal(t, "P002", out.Harvest[0].ID)
	assert.Equal(t, "Rejected", out.Harvest[0].Status)
	assert.Equal(t, "https://img/P002/harvest.jpg", out.Harvest[0].Image)
}
