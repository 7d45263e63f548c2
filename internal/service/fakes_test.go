package service

import (
	"context"
	"errors"

	"go-agritrace/internal/ledger"
	"go-agritrace/internal/model"
	"go-agritrace/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- ledger fakes ---

type fakeTx struct {
	hash    string
	waitErr error
}

func (t *fakeTx) Hash() string                   { return t.hash }
func (t *fakeTx) Wait(ctx context.Context) error { return t.waitErr }

// fakeWriter records which contract method each dispatch resolved to.
type fakeWriter struct {
	calls     []string
	submitErr error
	waitErr   error
}

func (w *fakeWriter) submit(method string) (ledger.PendingTx, error) {
	w.calls = append(w.calls, method)
	if w.submitErr != nil {
		return nil, w.submitErr
	}
	return &fakeTx{hash: "0xdeadbeef", waitErr: w.waitErr}, nil
}

func (w *fakeWriter) AddProduct(ctx context.Context, productName, productID, farmName string, plantingDate int64, plantingImageUrl, seedOrigin, creatorPhone, creatorName string) (ledger.PendingTx, error) {
	return w.submit("addProduct")
}

func (w *fakeWriter) LogCare(ctx context.Context, productID, careType, description string, careDate int64, careImageUrl, actorPhone, actorName string) (ledger.PendingTx, error) {
	return w.submit("logCare")
}

func (w *fakeWriter) UpdateProduct(ctx context.Context, productID, productName, farmName string, harvestDate int64, harvestImageUrl string, quantity int64, quality string) (ledger.PendingTx, error) {
	return w.submit("updateProduct")
}

func (w *fakeWriter) ApprovePlanting(ctx context.Context, productID string) (ledger.PendingTx, error) {
	return w.submit("approvePlanting")
}

func (w *fakeWriter) RejectPlanting(ctx context.Context, productID string) (ledger.PendingTx, error) {
	return w.submit("rejectPlanting")
}

func (w *fakeWriter) ApproveHarvest(ctx context.Context, productID string) (ledger.PendingTx, error) {
	return w.submit("approveHarvest")
}

func (w *fakeWriter) RejectHarvest(ctx context.Context, productID string) (ledger.PendingTx, error) {
	return w.submit("rejectHarvest")
}

func (w *fakeWriter) UpdateReceive(ctx context.Context, productID, transporterName string, receiveDate int64, receiveImageUrl, transportInfo string) (ledger.PendingTx, error) {
	return w.submit("updateReceive")
}

func (w *fakeWriter) UpdateDelivery(ctx context.Context, productID, transporterName string, deliveryDate int64, deliveryImageUrl, transportInfo string) (ledger.PendingTx, error) {
	return w.submit("updateDelivery")
}

func (w *fakeWriter) UpdateManagerInfo(ctx context.Context, productID string, managerReceiveDate int64, managerReceiveImageUrl string, price int64) (ledger.PendingTx, error) {
	return w.submit("updateManagerInfo")
}

func (w *fakeWriter) DeactivateProduct(ctx context.Context, productID string) (ledger.PendingTx, error) {
	return w.submit("deactivateProduct")
}

// fakeReader serves scripted index and trace responses.
type fakeReader struct {
	nextID    int64
	nextErr   error
	pids      map[int64]string
	pidErrs   map[int64]error
	traces    map[string]*ledger.TraceInfo
	traceErrs map[string]error
	careLogs  map[string][]ledger.CareLog
}

func (r *fakeReader) NextProductID(ctx context.Context) (int64, error) {
	return r.nextID, r.nextErr
}

func (r *fakeReader) IndexToProductID(ctx context.Context, index int64) (string, error) {
	if err := r.pidErrs[index]; err != nil {
		return "", err
	}
	return r.pids[index], nil
}

func (r *fakeReader) GetTrace(ctx context.Context, productID string) (*ledger.TraceInfo, error) {
	if err := r.traceErrs[productID]; err != nil {
		return nil, err
	}
	trace, ok := r.traces[productID]
	if !ok {
		return &ledger.TraceInfo{}, nil
	}
	return trace, nil
}

func (r *fakeReader) GetCareLogs(ctx context.Context, productID string) ([]ledger.CareLog, error) {
	return r.careLogs[productID], nil
}

// --- repository fakes ---

type fakeProductRepo struct {
	products  map[string]*model.Product
	createErr error
	updateErr error
	upserts   int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*model.Product{}}
}

func (f *fakeProductRepo) Create(product *model.Product) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.products[product.ProductID] = product
	return nil
}

func (f *fakeProductRepo) FindByProductID(productID string) (*model.Product, error) {
	product, ok := f.products[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeProductRepo) UpdateFields(productID string, fields map[string]interface{}) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	p, ok := f.products[productID]
	if !ok {
		return repository.ErrProductNotFound
	}
	for column, value := range fields {
		switch column {
		case "planting_status":
			p.PlantingStatus = value.(int)
		case "harvest_status":
			p.HarvestStatus = value.(int)
		case "status_code":
			p.StatusCode = value.(int)
		case "harvest_date":
			p.HarvestDate = value.(int64)
		case "quantity":
			p.Quantity = value.(int64)
		case "unit":
			p.Unit = value.(string)
		case "quality":
			p.Quality = value.(string)
		case "transporter_name":
			p.TransporterName = value.(string)
		case "is_received":
			p.IsReceived = value.(bool)
		case "is_delivered":
			p.IsDelivered = value.(bool)
		case "price":
			p.Price = value.(int64)
		default:
			return errors.New("unexpected column " + column)
		}
	}
	return nil
}

func (f *fakeProductRepo) Upsert(product *model.Product) error {
	f.upserts++
	f.products[product.ProductID] = product
	return nil
}

func (f *fakeProductRepo) FindByFarmPhone(phone string) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if p.FarmPhone == phone {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) FindPlantedByFarmPhone(phone string) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if p.FarmPhone == phone && p.PlantingStatus == model.ApprovalApproved {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) FindPendingRequests() ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if p.PlantingStatus == model.ApprovalPending ||
			(p.PlantingStatus == model.ApprovalApproved && p.HarvestStatus == model.ApprovalPending && p.HarvestDate > 0) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) FindShipments(transporterName string) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if p.IsReceived && p.TransporterName == transporterName {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) FindDelivered() ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if p.IsDelivered {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	byPhone map[string]*model.User
	byRole  map[model.Role][]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byPhone: map[string]*model.User{},
		byRole:  map[model.Role][]model.User{},
	}
}

func (f *fakeUserRepo) add(user *model.User) {
	f.byPhone[user.Phone] = user
	f.byRole[user.Role] = append(f.byRole[user.Role], *user)
}

func (f *fakeUserRepo) Create(user *model.User) error { f.add(user); return nil }

func (f *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, u := range f.byPhone {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByID(id uuid.UUID) (*model.User, error) {
	for _, u := range f.byPhone {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByPhone(phone string) (*model.User, error) {
	u, ok := f.byPhone[phone]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByRole(role model.Role) ([]model.User, error) {
	return f.byRole[role], nil
}

func (f *fakeUserRepo) Update(user *model.User) error { f.add(user); return nil }

func (f *fakeUserRepo) UpdateFields(id uuid.UUID, fields map[string]interface{}) error {
	return nil
}

func (f *fakeUserRepo) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	return nil
}

type fakeNotifRepo struct {
	stored    []model.Notification
	createErr error
}

func (f *fakeNotifRepo) Create(notification *model.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.stored = append(f.stored, *notification)
	return nil
}

func (f *fakeNotifRepo) FindByUser(userID uuid.UUID) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range f.stored {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeLogRepo struct {
	entries []model.ActionLog
}

func (f *fakeLogRepo) Create(entry *model.ActionLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogRepo) FindAll() ([]model.ActionLog, error) {
	return f.entries, nil
}

func (f *fakeLogRepo) FindByProductID(productID string) ([]model.ActionLog, error) {
	var out []model.ActionLog
	for _, e := range f.entries {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) GetDashboardStats() (*repository.DashboardStats, error) {
	return &repository.DashboardStats{}, nil
}

// --- notify fake ---

type fanoutCall struct {
	action  model.Action
	product *model.Product
	actor   *model.User
}

type fakeNotify struct {
	calls []fanoutCall
}

func (f *fakeNotify) Fanout(action model.Action, product *model.Product, actor *model.User) {
	f.calls = append(f.calls, fanoutCall{action: action, product: product, actor: actor})
}

func (f *fakeNotify) ListForUser(userID uuid.UUID) ([]model.Notification, error) {
	return nil, nil
}
