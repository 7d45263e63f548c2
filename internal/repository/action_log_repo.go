package repository

import (
	"go-agritrace/internal/model"

	"gorm.io/gorm"
)

type ActionLogRepository interface {
	Create(entry *model.ActionLog) error
	FindAll() ([]model.ActionLog, error)
	FindByProductID(productID string) ([]model.ActionLog, error)
	GetDashboardStats() (*DashboardStats, error)
}

// DashboardStats is the moderator/admin overview of the mirror.
type DashboardStats struct {
	TotalProducts     int64 `json:"total_products"`
	PendingPlanting   int64 `json:"pending_planting"`
	PendingHarvest    int64 `json:"pending_harvest"`
	OnShelf           int64 `json:"on_shelf"`
	Sold              int64 `json:"sold"`
	TotalActions      int64 `json:"total_actions"`
	UnsyncedActions   int64 `json:"unsynced_actions"`
	RegisteredFarmers int64 `json:"registered_farmers"`
}

type actionLogRepo struct {
	db *gorm.DB
}

func NewActionLogRepo(db *gorm.DB) ActionLogRepository {
	return &actionLogRepo{db}
}

func (r *actionLogRepo) Create(entry *model.ActionLog) error {
	return r.db.Create(entry).Error
}

func (r *actionLogRepo) FindAll() ([]model.ActionLog, error) {
	var entries []model.ActionLog
	err := r.db.Preload("Actor").Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *actionLogRepo) FindByProductID(productID string) ([]model.ActionLog, error) {
	var entries []model.ActionLog
	err := r.db.Preload("Actor").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (r *actionLogRepo) GetDashboardStats() (*DashboardStats, error) {
	var stats DashboardStats

	r.db.Model(&model.Product{}).Count(&stats.TotalProducts)
	r.db.Model(&model.Product{}).
		Where("planting_status = ?", model.ApprovalPending).
		Count(&stats.PendingPlanting)
	r.db.Model(&model.Product{}).
		Where("planting_status = ? AND harvest_status = ? AND harvest_date > 0",
			model.ApprovalApproved, model.ApprovalPending).
		Count(&stats.PendingHarvest)
	r.db.Model(&model.Product{}).
		Where("status_code = ?", model.StatusOnShelf).
		Count(&stats.OnShelf)
	r.db.Model(&model.Product{}).
		Where("status_code = ?", model.StatusSold).
		Count(&stats.Sold)

	r.db.Model(&model.ActionLog{}).Count(&stats.TotalActions)
	r.db.Model(&model.ActionLog{}).
		Where("mirror_synced = ?", false).
		Count(&stats.UnsyncedActions)

	r.db.Model(&model.User{}).
		Where("role = ?", model.RoleFarmer).
		Count(&stats.RegisteredFarmers)

	return &stats, nil
}
