package service

import (
	"fmt"
	"log"

	"go-agritrace/internal/model"
	"go-agritrace/internal/repository"
	"go-agritrace/internal/ws"

	"github.com/google/uuid"
)

// PushSender delivers a push notification to a device token. The transport
// (FCM or otherwise) lives outside this service; nil means no push.
type PushSender interface {
	Send(token, title, message string) error
}

// NotifyService computes and emits the per-action notification set. Every
// write is independent and best-effort: one failed recipient never aborts
// the others, and no failure here ever fails the action that triggered it.
type NotifyService interface {
	Fanout(action model.Action, product *model.Product, actor *model.User)
	ListForUser(userID uuid.UUID) ([]model.Notification, error)
}

type notifyService struct {
	userRepo  repository.UserRepository
	notifRepo repository.NotificationRepository
	wsHub     *ws.Hub
	push      PushSender
}

func NewNotifyService(userRepo repository.UserRepository, notifRepo repository.NotificationRepository, hub *ws.Hub, push PushSender) NotifyService {
	return &notifyService{
		userRepo:  userRepo,
		notifRepo: notifRepo,
		wsHub:     hub,
		push:      push,
	}
}

func (s *notifyService) ListForUser(userID uuid.UUID) ([]model.Notification, error) {
	return s.notifRepo.FindByUser(userID)
}

// Fanout applies the recipient rules for one confirmed action.
func (s *notifyService) Fanout(action model.Action, product *model.Product, actor *model.User) {
	name := "product"
	if product != nil && product.ProductName != "" {
		name = product.ProductName
	}
	pid := ""
	if product != nil {
		pid = product.ProductID
	}

	switch action {
	case model.ActionAddProduct:
		s.notify(actor, "Planting submitted",
			fmt.Sprintf("Your batch %s (%s) was created. Awaiting moderation.", name, pid),
			model.NotifySuccess)
		s.notifyRole(model.RoleModerator, "New planting request",
			fmt.Sprintf("Farmer %s submitted batch %s (%s).", actorName(actor), name, pid),
			model.NotifyInfo)

	case model.ActionApprovePlanting:
		s.notifyFarmer(product, "Planting approved",
			fmt.Sprintf("Your batch %s was approved. Time to grow!", name),
			model.NotifySuccess)

	case model.ActionRejectPlanting:
		s.notifyFarmer(product, "Planting rejected",
			fmt.Sprintf("The planting request for %s did not pass review.", name),
			model.NotifyError)

	case model.ActionHarvestProduct:
		s.notify(actor, "Harvest submitted",
			fmt.Sprintf("Awaiting harvest moderation for %s.", name),
			model.NotifyInfo)
		s.notifyRole(model.RoleModerator, "Harvest request",
			fmt.Sprintf("Farmer %s wants to harvest batch %s.", actorName(actor), name),
			model.NotifyInfo)

	case model.ActionApproveHarvest:
		s.notifyFarmer(product, "Harvest approved",
			fmt.Sprintf("Batch %s is cleared for shipping.", name),
			model.NotifySuccess)
		s.notifyRole(model.RoleTransporter, "New shipment available",
			fmt.Sprintf("Batch %s (%s) is ready for pickup.", name, pid),
			model.NotifyInfo)

	case model.ActionRejectHarvest:
		s.notifyFarmer(product, "Harvest rejected",
			fmt.Sprintf("Please review batch %s again.", name),
			model.NotifyError)

	case model.ActionUpdateReceive:
		s.notifyRole(model.RoleManager, "Shipment in transit",
			fmt.Sprintf("Batch %s is on its way to the store.", pid),
			model.NotifyInfo)

	case model.ActionUpdateDelivery:
		s.notifyRole(model.RoleManager, "Shipment delivered",
			fmt.Sprintf("Batch %s has arrived at the store.", pid),
			model.NotifySuccess)

	case model.ActionUpdateManagerInfo:
		price := int64(0)
		if product != nil {
			price = product.Price
		}
		msg := fmt.Sprintf("Batch %s is listed at %d.", pid, price)
		s.notifyRole(model.RoleAdmin, "Product on shelf", msg, model.NotifySuccess)
		s.notifyRole(model.RoleManager, "Product on shelf", msg, model.NotifySuccess)

	case model.ActionDeactivateProduct:
		s.notify(actor, "Sold out",
			fmt.Sprintf("Batch %s has been fully sold.", pid),
			model.NotifySuccess)

	case model.ActionLogCare:
		// ledger-only event, nobody to notify
	}
}

func actorName(actor *model.User) string {
	if actor == nil {
		return "unknown"
	}
	return actor.FullName
}

// notify writes one in-app notification and triggers realtime + push
// delivery. Failures are logged and swallowed.
func (s *notifyService) notify(user *model.User, title, message string, typ model.NotificationType) {
	if user == nil {
		return
	}

	n := &model.Notification{
		UserID:  user.ID,
		Title:   title,
		Message: message,
		Type:    typ,
	}
	if err := s.notifRepo.Create(n); err != nil {
		log.Printf("notify: failed to store notification for user %s: %v", user.ID, err)
		return
	}

	if s.wsHub != nil {
		go s.wsHub.BroadcastJSON(map[string]interface{}{
			"type":    "notification",
			"user_id": user.ID.String(),
			"title":   title,
			"message": message,
			"level":   typ,
		})
	}

	if s.push != nil && user.FCMToken != "" {
		if err := s.push.Send(user.FCMToken, title, message); err != nil {
			log.Printf("notify: push delivery to user %s failed: %v", user.ID, err)
		}
	}
}

func (s *notifyService) notifyRole(role model.Role, title, message string, typ model.NotificationType) {
	users, err := s.userRepo.FindByRole(role)
	if err != nil {
		log.Printf("notify: failed to resolve %s users: %v", role, err)
		return
	}
	for i := range users {
		s.notify(&users[i], title, message, typ)
	}
}

func (s *notifyService) notifyFarmer(product *model.Product, title, message string, typ model.NotificationType) {
	if product == nil || product.FarmPhone == "" {
		return
	}
	farmer, err := s.userRepo.FindByPhone(product.FarmPhone)
	if err != nil {
		log.Printf("notify: no farmer found for phone %s: %v", product.FarmPhone, err)
		return
	}
	s.notify(farmer, title, message, typ)
}
