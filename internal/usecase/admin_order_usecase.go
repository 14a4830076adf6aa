package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"go.uber.org/zap"
)

// AdminOrderUsecase は管理画面の注文一覧と、管理者操作としての
// ステータス更新（＝StatusUsecaseに委譲＋監査ログ）を担当する。
type AdminOrderUsecase struct {
	orderRepo repo.OrderRepository
	auditRepo repo.AuditLogRepository
	statusUC  *StatusUsecase
	logger    *zap.Logger
}

func NewAdminOrderUsecase(
	orderRepo repo.OrderRepository,
	auditRepo repo.AuditLogRepository,
	statusUC *StatusUsecase,
	logger *zap.Logger,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		statusUC:  statusUC,
		logger:    logger,
	}
}

type AdminOrderListInput struct {
	Page       int
	Limit      int
	Status     string
	CustomerID *int64
	From       *time.Time
	To         *time.Time
}

type AdminOrderListOutput struct {
	Orders []model.Order `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (AdminOrderListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.Status != "" && !model.OrderStatus(in.Status).Valid() {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	orders, total, err := u.orderRepo.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:       in.Page,
		Limit:      in.Limit,
		Status:     in.Status,
		CustomerID: in.CustomerID,
		From:       in.From,
		To:         in.To,
	})
	if err != nil {
		u.logger.Error("admin order list failed", zap.Error(err))
		return AdminOrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return AdminOrderListOutput{Orders: orders, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// 管理者によるステータス更新。遷移本体はStatusUsecase、こちらは監査ログのみ追加。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor Identity, orderID int64, newStatus model.OrderStatus, note string) (UpdateStatusOutput, error) {
	out, err := u.statusUC.UpdateOrderStatus(ctx, actor, orderID, newStatus, note)
	if err != nil {
		return UpdateStatusOutput{}, err
	}

	before, _ := json.Marshal(map[string]string{"status": out.FromStatus})
	after, _ := json.Marshal(map[string]string{"status": out.ToStatus})

	//監査ログは遷移成功後のベストエフォート
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
		CreatedAt:    time.Now(),
	}); err != nil {
		u.logger.Warn("audit log failed", zap.Int64("order_id", orderID), zap.Error(err))
	}

	return out, nil
}

// 現在のステータスから選べる遷移先。管理画面のプルダウン用。
func (u *AdminOrderUsecase) NextStatuses(ctx context.Context, orderID int64) ([]model.OrderStatus, error) {
	if orderID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return nil, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		u.logger.Error("load order failed", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return model.NextStatuses(o.Status), nil
}

type AuditLogListInput struct {
	ActorUserID *int64
	Action      string
	Limit       int
	Offset      int
}

func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, in AuditLogListInput) ([]model.AuditLog, error) {
	if in.Limit < 1 || in.Limit > 200 {
		in.Limit = 50
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	filter := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		filter.Action = &a
	}

	logs, err := u.auditRepo.List(ctx, filter)
	if err != nil {
		u.logger.Error("audit log list failed", zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
