package repository

import (
	"errors"

	"go-agritrace/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	Create(product *model.Product) error
	FindByProductID(productID string) (*model.Product, error)
	// UpdateFields applies an atomic match-by-id conditional update. This is
	// the only mutation path for mirror status fields.
	UpdateFields(productID string, fields map[string]interface{}) error
	// Upsert writes a full row keyed by product_id, used by reconciliation.
	Upsert(product *model.Product) error

	FindByFarmPhone(phone string) ([]model.Product, error)
	FindPlantedByFarmPhone(phone string) ([]model.Product, error)
	FindPendingRequests() ([]model.Product, error)
	FindShipments(transporterName string) ([]model.Product, error)
	FindDelivered() ([]model.Product, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindByProductID(productID string) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) UpdateFields(productID string, fields map[string]interface{}) error {
	res := r.db.Model(&model.Product{}).
		Where("product_id = ?", productID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepo) Upsert(product *model.Product) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		UpdateAll: true,
	}).Create(product).Error
}

func (r *productRepo) FindByFarmPhone(phone string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("farm_phone = ?", phone).
		Order("updated_at DESC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindPlantedByFarmPhone(phone string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("farm_phone = ? AND planting_status = ?", phone, model.ApprovalApproved).
		Order("updated_at DESC").
		Find(&products).Error
	return products, err
}

// FindPendingRequests returns products awaiting moderation: planting not yet
// reviewed, or planting approved with a submitted but unreviewed harvest.
func (r *productRepo) FindPendingRequests() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where(
		"planting_status = ? OR (planting_status = ? AND harvest_status = ? AND harvest_date > 0)",
		model.ApprovalPending, model.ApprovalApproved, model.ApprovalPending,
	).Order("updated_at DESC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindShipments(transporterName string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("is_received = ? AND transporter_name = ?", true, transporterName).
		Order("updated_at DESC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindDelivered() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("is_delivered = ?", true).
		Order("updated_at DESC").
		Find(&products).Error
	return products, err
}
