package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"go-agritrace/internal/apperr"
	"go-agritrace/internal/ledger"
	"go-agritrace/internal/model"
	"go-agritrace/internal/repository"
)

// DispatchResult is what a completed action returns to the caller.
type DispatchResult struct {
	TxHash string `json:"tx_hash"`
	// False when the ledger committed but the mirror write failed; the
	// action log keeps the payload for reconciliation.
	MirrorSynced bool `json:"mirror_synced"`
}

// ActionService relays whitelisted business actions to the ledger and, once
// a transaction is confirmed, applies the matching mirror transition and
// notification fan-out.
//
// Confirmation policy is durable: Dispatch blocks until the ledger includes
// the transaction. A submission or confirmation failure short-circuits
// before any mirror mutation, so the mirror never runs ahead of the ledger.
type ActionService interface {
	Dispatch(ctx context.Context, req *model.ActionRequest, actor *model.User) (*DispatchResult, error)
	History() ([]model.ActionLog, error)
}

type actionService struct {
	writer      ledger.Writer
	productRepo repository.ProductRepository
	logRepo     repository.ActionLogRepository
	notify      NotifyService
}

func NewActionService(writer ledger.Writer, productRepo repository.ProductRepository, logRepo repository.ActionLogRepository, notify NotifyService) ActionService {
	return &actionService{
		writer:      writer,
		productRepo: productRepo,
		logRepo:     logRepo,
		notify:      notify,
	}
}

func (s *actionService) History() ([]model.ActionLog, error) {
	return s.logRepo.FindAll()
}

func (s *actionService) Dispatch(ctx context.Context, req *model.ActionRequest, actor *model.User) (*DispatchResult, error) {
	// Validation happens before anything touches the ledger.
	if !req.Action.Valid() {
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("unknown action %q", req.Action))
	}
	if req.ProductID == "" {
		return nil, apperr.New(apperr.KindValidation, "productId is required")
	}
	if req.Action == model.ActionAddProduct && req.ProductName == "" {
		return nil, apperr.New(apperr.KindValidation, "productName is required")
	}

	tx, err := s.submit(ctx, req, actor)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLedgerSubmit, "ledger submission failed", err)
	}

	log.Printf("action %s submitted, tx %s, waiting for confirmation", req.Action, tx.Hash())
	if err := tx.Wait(ctx); err != nil {
		// Not confirmed: no mirror mutation, no notification. The caller
		// resubmits if needed; a resubmission is a fresh transaction.
		return nil, apperr.Wrap(apperr.KindLedgerSubmit, "ledger did not confirm transaction", err)
	}
	log.Printf("action %s confirmed, tx %s", req.Action, tx.Hash())

	product, mirrorErr := s.applyMirror(req, actor)
	if mirrorErr != nil {
		// The ledger has advanced but the mirror has not. Keep everything an
		// operator needs to replay the sync.
		log.Printf("MIRROR SYNC FAILED action=%s productId=%s tx=%s: %v",
			req.Action, req.ProductID, tx.Hash(), mirrorErr)
	}

	s.record(req, actor, tx.Hash(), mirrorErr == nil)

	if mirrorErr == nil {
		s.notify.Fanout(req.Action, product, actor)
	}

	return &DispatchResult{TxHash: tx.Hash(), MirrorSynced: mirrorErr == nil}, nil
}

// submit marshals the payload into the gateway's positional signature for
// the given tag. The tag set is a closed switch on purpose: the whitelist is
// a security boundary in front of the relayer signer.
func (s *actionService) submit(ctx context.Context, req *model.ActionRequest, actor *model.User) (ledger.PendingTx, error) {
	data := &req.ActionData

	switch req.Action {
	case model.ActionAddProduct:
		return s.writer.AddProduct(ctx,
			data.ProductName,
			data.ProductID,
			defaultFarmName(data.FarmName, actor),
			data.PlantingDate,
			data.PlantingImageUrl,
			data.Seed(),
			defaultPhone(actor),
			defaultName(actor),
		)

	case model.ActionLogCare:
		return s.writer.LogCare(ctx,
			data.ProductID,
			data.CareType,
			data.Description,
			data.CareDate,
			data.CareImageUrl,
			defaultPhone(actor),
			defaultName(actor),
		)

	case model.ActionHarvestProduct:
		productName := data.ProductName
		if productName == "" {
			productName = "Product"
		}
		quality := data.Quality
		if quality == "" {
			quality = "Grade A"
		}
		return s.writer.UpdateProduct(ctx,
			data.ProductID,
			productName,
			data.FarmName,
			data.HarvestDate,
			data.HarvestImageUrl,
			data.Quantity,
			quality,
		)

	case model.ActionApprovePlanting:
		return s.writer.ApprovePlanting(ctx, data.ProductID)
	case model.ActionRejectPlanting:
		return s.writer.RejectPlanting(ctx, data.ProductID)
	case model.ActionApproveHarvest:
		return s.writer.ApproveHarvest(ctx, data.ProductID)
	case model.ActionRejectHarvest:
		return s.writer.RejectHarvest(ctx, data.ProductID)

	case model.ActionUpdateReceive:
		return s.writer.UpdateReceive(ctx,
			data.ProductID,
			data.TransporterName,
			data.ReceiveDate,
			data.ReceiveImageUrl,
			data.TransportInfo,
		)

	case model.ActionUpdateDelivery:
		return s.writer.UpdateDelivery(ctx,
			data.ProductID,
			data.TransporterName,
			data.DeliveryDate,
			data.DeliveryImageUrl,
			data.TransportInfo,
		)

	case model.ActionUpdateManagerInfo:
		return s.writer.UpdateManagerInfo(ctx,
			data.ProductID,
			data.ManagerReceiveDate,
			data.ManagerReceiveImageUrl,
			data.Price,
		)

	case model.ActionDeactivateProduct:
		return s.writer.DeactivateProduct(ctx, data.ProductID)
	}

	// Unreachable: Valid() gates the tag set above.
	return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("unknown action %q", req.Action))
}

// applyMirror is the single code path that mutates Product status fields.
// Assignments are idempotent: replaying the same action yields the same row.
func (s *actionService) applyMirror(req *model.ActionRequest, actor *model.User) (*model.Product, error) {
	data := &req.ActionData

	switch req.Action {
	case model.ActionAddProduct:
		product := &model.Product{
			ProductID:        data.ProductID,
			ProductName:      data.ProductName,
			FarmName:         defaultFarmName(data.FarmName, actor),
			FarmOwner:        defaultName(actor),
			FarmPhone:        defaultPhone(actor),
			SeedSource:       data.Seed(),
			PlantingDate:     data.PlantingDate,
			PlantingImageUrl: data.PlantingImageUrl,
			StatusCode:       model.StatusPending,
			PlantingStatus:   model.ApprovalPending,
			HarvestStatus:    model.ApprovalPending,
		}
		if err := s.productRepo.Create(product); err != nil {
			return nil, apperr.Wrap(apperr.KindMirrorWrite, "failed to create mirror product", err)
		}
		return product, nil

	case model.ActionLogCare:
		// Ledger-only event, no Product field changes.
		return s.lookup(data.ProductID), nil

	case model.ActionApprovePlanting:
		return s.update(data.ProductID, map[string]interface{}{
			"planting_status": model.ApprovalApproved,
			"status_code":     model.StatusPlanting,
		})

	case model.ActionRejectPlanting:
		return s.update(data.ProductID, map[string]interface{}{
			"planting_status": model.ApprovalRejected,
		})

	case model.ActionHarvestProduct:
		return s.update(data.ProductID, map[string]interface{}{
			"harvest_date":   data.HarvestDate,
			"status_code":    model.StatusHarvested,
			"harvest_status": model.ApprovalPending,
			"quantity":       data.Quantity,
			"unit":           data.Unit,
			"quality":        data.Quality,
		})

	case model.ActionApproveHarvest:
		return s.update(data.ProductID, map[string]interface{}{
			"harvest_status": model.ApprovalApproved,
		})

	case model.ActionRejectHarvest:
		return s.update(data.ProductID, map[string]interface{}{
			"harvest_status": model.ApprovalRejected,
		})

	case model.ActionUpdateReceive:
		return s.update(data.ProductID, map[string]interface{}{
			"transporter_name": data.TransporterName,
			"is_received":      true,
			"status_code":      model.StatusHarvested,
		})

	case model.ActionUpdateDelivery:
		return s.update(data.ProductID, map[string]interface{}{
			"is_delivered": true,
		})

	case model.ActionUpdateManagerInfo:
		return s.update(data.ProductID, map[string]interface{}{
			"price":       data.Price,
			"status_code": model.StatusOnShelf,
		})

	case model.ActionDeactivateProduct:
		return s.update(data.ProductID, map[string]interface{}{
			"status_code": model.StatusSold,
		})
	}

	return nil, nil
}

func (s *actionService) update(productID string, fields map[string]interface{}) (*model.Product, error) {
	if err := s.productRepo.UpdateFields(productID, fields); err != nil {
		return nil, apperr.Wrap(apperr.KindMirrorWrite, "failed to update mirror product", err)
	}
	return s.lookup(productID), nil
}

// lookup fetches the current mirror row for fan-out. Best-effort: fan-out
// can still address the product by id alone.
func (s *actionService) lookup(productID string) *model.Product {
	product, err := s.productRepo.FindByProductID(productID)
	if err != nil {
		log.Printf("mirror lookup for %s failed: %v", productID, err)
		return &model.Product{ProductID: productID}
	}
	return product
}

func (s *actionService) record(req *model.ActionRequest, actor *model.User, txHash string, synced bool) {
	payload, _ := json.Marshal(req.ActionData)

	entry := &model.ActionLog{
		Action:       string(req.Action),
		ProductID:    req.ProductID,
		TxHash:       txHash,
		Payload:      string(payload),
		MirrorSynced: synced,
	}
	if actor != nil {
		entry.ActorID = actor.ID
	}
	if err := s.logRepo.Create(entry); err != nil {
		log.Printf("failed to record action log for tx %s: %v", txHash, err)
	}
}

func defaultFarmName(farmName string, actor *model.User) string {
	if farmName != "" {
		return farmName
	}
	if actor != nil && actor.FullName != "" {
		return actor.FullName + "'s Farm"
	}
	return "Farm"
}

func defaultPhone(actor *model.User) string {
	if actor != nil && actor.Phone != "" {
		return actor.Phone
	}
	return "0900000000"
}

func defaultName(actor *model.User) string {
	if actor != nil && actor.FullName != "" {
		return actor.FullName
	}
	return "Farmer"
}
