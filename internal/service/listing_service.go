package service

import (
	"context"
	"log"
	"time"

	"go-agritrace/internal/apperr"
	"go-agritrace/internal/ledger"
	"go-agritrace/internal/model"
	"go-agritrace/internal/repository"
)

// ScanConfig bounds the ledger scanner. Delay is the minimum spacing
// between ledger reads; the remote RPC provider rate-limits requests, so
// this is backpressure, not decoration. Limit caps listing size.
type ScanConfig struct {
	Delay time.Duration
	Limit int
}

// FarmerProductView is the farmer's "my products" row.
type FarmerProductView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Image          string `json:"image"`
	Status         string `json:"status"`
	StatusCode     int    `json:"statusCode"`
	PlantingStatus int    `json:"plantingStatus"`
	HarvestStatus  int    `json:"harvestStatus"`
	HarvestDate    int64  `json:"harvestDate"`
}

// PendingItem is one moderation queue entry.
type PendingItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Farm     string `json:"farm"`
	Image    string `json:"image"`
	Date     int64  `json:"date"`
	Quantity int64  `json:"quantity,omitempty"`
	Type     string `json:"type"`
}

// PendingRequests splits the moderation queue by stage.
type PendingRequests struct {
	Planting []PendingItem `json:"planting"`
	Harvest  []PendingItem `json:"harvest"`
}

// ModeratedItem is one already-reviewed entry read back from the ledger.
type ModeratedItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Farm       string `json:"farm"`
	Image      string `json:"image"`
	Date       int64  `json:"date"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Type       string `json:"type,omitempty"`
}

// ModeratedRequests is the moderation history, planting and harvest.
type ModeratedRequests struct {
	Planting []ModeratedItem `json:"planting"`
	Harvest  []ModeratedItem `json:"harvest"`
}

// ShipmentView is a transporter's assigned cargo row.
type ShipmentView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	Location   string `json:"location"`
	Time       int64  `json:"time"`
	StatusCode int    `json:"statusCode"`
	FarmName   string `json:"farmName"`
}

// RetailerProductView is a delivered product as the store sees it.
type RetailerProductView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Farm       string `json:"farm"`
	Image      string `json:"image"`
	Price      int64  `json:"price"`
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Time       int64  `json:"time"`
}

// OnShelfItem is a publicly listed product found by the ledger scanner.
type OnShelfItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Image string `json:"image"`
	Farm  string `json:"farm"`
}

// ProductDetail is the merged trace + mirror view with care logs.
type ProductDetail struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
	Farm struct {
		Name  string `json:"name"`
		Owner string `json:"owner"`
		Phone string `json:"phone"`
		Seed  string `json:"seed"`
	} `json:"farm"`
	Dates struct {
		Planting int64 `json:"planting"`
		Harvest  int64 `json:"harvest"`
		Receive  int64 `json:"receive"`
		Delivery int64 `json:"delivery"`
	} `json:"dates"`
	Images struct {
		Planting string `json:"planting"`
		Harvest  string `json:"harvest"`
		Receive  string `json:"receive"`
		Delivery string `json:"delivery"`
	} `json:"images"`
	Status struct {
		Planting int `json:"planting"`
		Harvest  int `json:"harvest"`
	} `json:"status"`
	Transporter struct {
		Name string `json:"name"`
		Info string `json:"info"`
	} `json:"transporter"`
	Retailer struct {
		Price int64  `json:"price"`
		Image string `json:"image"`
	} `json:"retailer"`
	CareLogs []CareLogView `json:"careLogs"`
}

type CareLogView struct {
	Type  string `json:"type"`
	Desc  string `json:"desc"`
	Date  int64  `json:"date"`
	Image string `json:"image"`
}

// ProductService serves the listing and detail queries: mirror-backed ones
// straight from Postgres, ledger-native ones through the paced scanner.
type ProductService interface {
	MyProducts(farmPhone string) ([]FarmerProductView, error)
	PendingRequests() (*PendingRequests, error)
	ModeratedRequests(ctx context.Context) (*ModeratedRequests, error)
	MyShipments(transporterName string) ([]ShipmentView, error)
	RetailerProducts() ([]RetailerProductView, error)
	OnShelf(ctx context.Context) ([]OnShelfItem, error)
	ByFarmer(farmPhone string) ([]FarmerProductView, error)
	Detail(ctx context.Context, productID string) (*ProductDetail, error)
	Reconcile(ctx context.Context, productID string) (*model.Product, error)
}

type productService struct {
	reader      ledger.Reader
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository

	scanDelay time.Duration
	scanLimit int
	sleep     func(time.Duration) // swapped out in tests
}

func NewProductService(reader ledger.Reader, productRepo repository.ProductRepository, userRepo repository.UserRepository, cfg ScanConfig) ProductService {
	if cfg.Delay <= 0 {
		cfg.Delay = 200 * time.Millisecond
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	return &productService{
		reader:      reader,
		productRepo: productRepo,
		userRepo:    userRepo,
		scanDelay:   cfg.Delay,
		scanLimit:   cfg.Limit,
		sleep:       time.Sleep,
	}
}

// pause spaces consecutive ledger reads to stay under the RPC provider's
// request-rate ceiling.
func (s *productService) pause() {
	s.sleep(s.scanDelay)
}

func (s *productService) MyProducts(farmPhone string) ([]FarmerProductView, error) {
	products, err := s.productRepo.FindByFarmPhone(farmPhone)
	if err != nil {
		return nil, err
	}

	views := make([]FarmerProductView, 0, len(products))
	for i := range products {
		p := &products[i]
		views = append(views, FarmerProductView{
			ID:             p.ProductID,
			Name:           p.ProductName,
			Image:          p.PlantingImageUrl,
			Status:         p.StatusText(),
			StatusCode:     p.StatusCode,
			PlantingStatus: p.PlantingStatus,
			HarvestStatus:  p.HarvestStatus,
			HarvestDate:    p.HarvestDate,
		})
	}
	return views, nil
}

func (s *productService) PendingRequests() (*PendingRequests, error) {
	products, err := s.productRepo.FindPendingRequests()
	if err != nil {
		return nil, err
	}

	out := &PendingRequests{
		Planting: []PendingItem{},
		Harvest:  []PendingItem{},
	}
	for i := range products {
		p := &products[i]
		item := PendingItem{
			ID:    p.ProductID,
			Name:  p.ProductName,
			Farm:  p.FarmName,
			Image: p.PlantingImageUrl,
			Date:  p.PlantingDate,
		}
		if item.Farm == "" {
			item.Farm = "Farm"
		}
		if p.PlantingStatus == model.ApprovalPending {
			item.Type = "planting"
			out.Planting = append(out.Planting, item)
		} else {
			item.Type = "harvest"
			item.Quantity = p.Quantity
			out.Harvest = append(out.Harvest, item)
		}
	}
	return out, nil
}

// ModeratedRequests walks the whole ledger index space and collects entries
// whose planting or harvest review already happened. Per-item read failures
// are skipped, never fatal.
func (s *productService) ModeratedRequests(ctx context.Context) (*ModeratedRequests, error) {
	s.pause()
	nextID, err := s.reader.NextProductID(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLedgerRead, "failed to read ledger index", err)
	}

	out := &ModeratedRequests{
		Planting: []ModeratedItem{},
		Harvest:  []ModeratedItem{},
	}

	for i := int64(1); i < nextID; i++ {
		trace, pid, err := s.readAt(ctx, i)
		if err != nil {
			log.Printf("moderated scan: skipping index %d: %v", i, err)
			continue
		}

		item := ModeratedItem{
			ID:    pid,
			Name:  trace.ProductName,
			Farm:  trace.FarmName,
			Image: trace.PlantingImageUrl,
			Date:  ledger.ToInt64(trace.PlantingDate),
		}

		if pStatus := int(trace.PlantingStatus); pStatus != model.ApprovalPending {
			entry := item
			entry.Status = reviewText(pStatus)
			entry.StatusCode = pStatus
			out.Planting = append(out.Planting, entry)
		}
		if hStatus := int(trace.HarvestStatus); hStatus != model.ApprovalPending {
			entry := item
			entry.Status = reviewText(hStatus)
			entry.StatusCode = hStatus
			entry.Type = "harvest"
			if trace.HarvestImageUrl != "" {
				entry.Image = trace.HarvestImageUrl
			}
			out.Harvest = append(out.Harvest, entry)
		}
	}
	return out, nil
}

func reviewText(status int) string {
	if status == model.ApprovalApproved {
		return "Approved"
	}
	return "Rejected"
}

func (s *productService) MyShipments(transporterName string) ([]ShipmentView, error) {
	products, err := s.productRepo.FindShipments(transporterName)
	if err != nil {
		return nil, err
	}

	views := make([]ShipmentView, 0, len(products))
	for i := range products {
		p := &products[i]
		view := ShipmentView{
			ID:         p.ProductID,
			Name:       p.ProductName,
			Image:      p.PlantingImageUrl,
			Location:   "In transit",
			Time:       p.PlantingDate,
			StatusCode: 1,
			FarmName:   p.FarmName,
		}
		if p.IsDelivered {
			view.Location = "Delivered"
			view.StatusCode = 2
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *productService) RetailerProducts() ([]RetailerProductView, error) {
	products, err := s.productRepo.FindDelivered()
	if err != nil {
		return nil, err
	}

	views := make([]RetailerProductView, 0, len(products))
	for i := range products {
		p := &products[i]
		view := RetailerProductView{
			ID:    p.ProductID,
			Name:  p.ProductName,
			Farm:  p.FarmName,
			Image: p.PlantingImageUrl,
			Price: p.Price,
			Time:  p.HarvestDate,
		}
		switch {
		case p.StatusCode == model.StatusSold:
			view.StatusCode = model.StatusSold
			view.Status = "Sold out"
		case p.Price > 0:
			view.StatusCode = model.StatusOnShelf
			view.Status = "On shelf"
		default:
			view.StatusCode = model.StatusHarvested
			view.Status = "Awaiting shelving"
		}
		views = append(views, view)
	}
	return views, nil
}

// OnShelf enumerates ledger records newest first and returns up to the
// configured cap of products that carry a price. Display fields are
// enriched from the mirror when possible and fall back to ledger values.
func (s *productService) OnShelf(ctx context.Context) ([]OnShelfItem, error) {
	s.pause()
	nextID, err := s.reader.NextProductID(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLedgerRead, "failed to read ledger index", err)
	}

	items := []OnShelfItem{}
	for i := nextID - 1; i >= 1 && len(items) < s.scanLimit; i-- {
		trace, pid, err := s.readAt(ctx, i)
		if err != nil {
			log.Printf("on-shelf scan: skipping index %d: %v", i, err)
			continue
		}

		price := ledger.ToInt64(trace.Price)
		if price <= 0 {
			continue
		}

		image := trace.ManagerReceiveImageUrl
		if image == "" {
			image = trace.PlantingImageUrl
		}

		items = append(items, OnShelfItem{
			ID:    pid,
			Name:  s.displayProductName(pid, trace.ProductName),
			Price: price,
			Image: image,
			Farm:  s.displayFarmName(trace),
		})
	}
	return items, nil
}

// readAt resolves one ledger index to its trace, pacing both reads.
func (s *productService) readAt(ctx context.Context, index int64) (*ledger.TraceInfo, string, error) {
	s.pause()
	pid, err := s.reader.IndexToProductID(ctx, index)
	if err != nil {
		return nil, "", err
	}
	if pid == "" {
		return nil, "", apperr.New(apperr.KindLedgerRead, "empty product id")
	}

	s.pause()
	trace, err := s.reader.GetTrace(ctx, pid)
	if err != nil {
		return nil, "", err
	}
	return trace, pid, nil
}

// displayFarmName prefers the farmer's current mirror identity (company
// name over personal name) and falls back to the name frozen on the ledger.
func (s *productService) displayFarmName(trace *ledger.TraceInfo) string {
	name := trace.FarmName
	if name == "" {
		name = "Farm"
	}

	farmer, err := s.userRepo.FindByPhone(trace.CreatorPhone)
	if err != nil {
		return name
	}
	if display := farmer.DisplayName(); display != "" {
		return display
	}
	return name
}

func (s *productService) displayProductName(productID, ledgerName string) string {
	product, err := s.productRepo.FindByProductID(productID)
	if err != nil || product.ProductName == "" {
		return ledgerName
	}
	return product.ProductName
}

func (s *productService) ByFarmer(farmPhone string) ([]FarmerProductView, error) {
	products, err := s.productRepo.FindPlantedByFarmPhone(farmPhone)
	if err != nil {
		return nil, err
	}

	views := make([]FarmerProductView, 0, len(products))
	for i := range products {
		p := &products[i]
		status := "Growing"
		if p.StatusCode >= model.StatusHarvested {
			status = "Harvested"
		}
		views = append(views, FarmerProductView{
			ID:         p.ProductID,
			Name:       p.ProductName,
			Image:      p.PlantingImageUrl,
			Status:     status,
			StatusCode: p.StatusCode,
		})
	}
	return views, nil
}

// Detail returns the merged ledger + mirror view of one product.
func (s *productService) Detail(ctx context.Context, productID string) (*ProductDetail, error) {
	trace, err := s.reader.GetTrace(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLedgerRead, "failed to read product trace", err)
	}
	if !trace.Exists() {
		return nil, apperr.New(apperr.KindNotFound, "product does not exist on the ledger")
	}

	careLogs, err := s.reader.GetCareLogs(ctx, productID)
	if err != nil {
		log.Printf("detail: care logs unavailable for %s: %v", productID, err)
		careLogs = trace.CareLogs
	}

	detail := &ProductDetail{
		ID:   trace.ProductId,
		Name: trace.ProductName,
	}
	detail.Farm.Name = trace.FarmName
	detail.Farm.Owner = trace.CreatorName
	detail.Farm.Phone = trace.CreatorPhone
	detail.Farm.Seed = trace.SeedOrigin
	if detail.Farm.Seed == "" {
		detail.Farm.Seed = "Unknown origin"
	}
	detail.Dates.Planting = ledger.ToInt64(trace.PlantingDate)
	detail.Dates.Harvest = ledger.ToInt64(trace.HarvestDate)
	detail.Dates.Receive = ledger.ToInt64(trace.ReceiveDate)
	detail.Dates.Delivery = ledger.ToInt64(trace.DeliveryDate)
	detail.Images.Planting = trace.PlantingImageUrl
	detail.Images.Harvest = trace.HarvestImageUrl
	detail.Images.Receive = trace.ReceiveImageUrl
	detail.Images.Delivery = trace.DeliveryImageUrl
	detail.Status.Planting = int(trace.PlantingStatus)
	detail.Status.Harvest = int(trace.HarvestStatus)
	detail.Transporter.Name = trace.TransporterName
	detail.Transporter.Info = trace.TransportInfo
	detail.Retailer.Price = ledger.ToInt64(trace.Price)
	detail.Retailer.Image = trace.ManagerReceiveImageUrl

	// Mirror overrides are display-only and best-effort.
	if product, perr := s.productRepo.FindByProductID(productID); perr == nil {
		if product.ProductName != "" {
			detail.Name = product.ProductName
		}
		detail.Unit = product.Unit
	}

	detail.CareLogs = make([]CareLogView, 0, len(careLogs))
	for _, entry := range careLogs {
		detail.CareLogs = append(detail.CareLogs, CareLogView{
			Type:  entry.CareType,
			Desc:  entry.Description,
			Date:  ledger.ToInt64(entry.CareDate),
			Image: entry.CareImageUrl,
		})
	}
	return detail, nil
}

// Reconcile rebuilds the mirror row for one product from ledger truth. This
// is the repair path for a mirror write that failed after ledger success.
func (s *productService) Reconcile(ctx context.Context, productID string) (*model.Product, error) {
	trace, err := s.reader.GetTrace(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLedgerRead, "failed to read product trace", err)
	}
	if !trace.Exists() {
		return nil, apperr.New(apperr.KindNotFound, "product does not exist on the ledger")
	}

	harvestDate := ledger.ToInt64(trace.HarvestDate)
	price := ledger.ToInt64(trace.Price)

	product := &model.Product{
		ProductID:        trace.ProductId,
		ProductName:      trace.ProductName,
		FarmName:         trace.FarmName,
		FarmOwner:        trace.CreatorName,
		FarmPhone:        trace.CreatorPhone,
		SeedSource:       trace.SeedOrigin,
		PlantingStatus:   int(trace.PlantingStatus),
		HarvestStatus:    int(trace.HarvestStatus),
		PlantingImageUrl: trace.PlantingImageUrl,
		PlantingDate:     ledger.ToInt64(trace.PlantingDate),
		HarvestDate:      harvestDate,
		TransporterName:  trace.TransporterName,
		IsReceived:       ledger.ToInt64(trace.ReceiveDate) > 0,
		IsDelivered:      ledger.ToInt64(trace.DeliveryDate) > 0,
		Price:            price,
		Quantity:         ledger.ToInt64(trace.Quantity),
		Quality:          trace.Quality,
	}
	product.StatusCode = model.DeriveStatusCode(
		product.PlantingStatus, product.HarvestStatus, harvestDate, price, trace.Active)

	if err := s.productRepo.Upsert(product); err != nil {
		return nil, apperr.Wrap(apperr.KindMirrorWrite, "failed to upsert mirror product", err)
	}
	return product, nil
}
