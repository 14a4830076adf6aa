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

// AdminFarmerUsecase は農家の審査（verify）とユーザーの停止を担当する。
type AdminFarmerUsecase struct {
	users     repo.UserRepository
	auditRepo repo.AuditLogRepository
	logger    *zap.Logger
}

func NewAdminFarmerUsecase(users repo.UserRepository, auditRepo repo.AuditLogRepository, logger *zap.Logger) *AdminFarmerUsecase {
	return &AdminFarmerUsecase{users: users, auditRepo: auditRepo, logger: logger}
}

type FarmerListOutput struct {
	Farmers []model.Farmer `json:"farmers"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
}

func (u *AdminFarmerUsecase) ListFarmers(ctx context.Context, page, limit int) (FarmerListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	farmers, total, err := u.users.ListFarmers(ctx, page, limit)
	if err != nil {
		u.logger.Error("farmer list failed", zap.Error(err))
		return FarmerListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return FarmerListOutput{Farmers: farmers, Total: total, Page: page, Limit: limit}, nil
}

// 農家を審査済みにする（取り消しも同じ口）。
func (u *AdminFarmerUsecase) SetFarmerVerified(ctx context.Context, actor Identity, farmerID int64, verified bool) error {
	if farmerID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.users.SetFarmerVerified(ctx, farmerID, verified); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		u.logger.Error("verify farmer failed", zap.Int64("farmer_id", farmerID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	before, _ := json.Marshal(map[string]bool{"verified": !verified})
	after, _ := json.Marshal(map[string]bool{"verified": verified})
	u.audit(ctx, model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       model.AuditActionVerifyFarmer,
		ResourceType: model.AuditResourceFarmer,
		ResourceID:   farmerID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
		CreatedAt:    time.Now(),
	})

	return nil
}

// ユーザー停止／再開。停止中はログインできない。
func (u *AdminFarmerUsecase) SetUserActive(ctx context.Context, actor Identity, userID int64, active bool) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if userID == actor.UserID {
		return NewHTTPError(http.StatusBadRequest, "cannot deactivate yourself")
	}

	if err := u.users.SetUserActive(ctx, userID, active); err != nil {
		if err == repo.ErrUserNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		u.logger.Error("set user active failed", zap.Int64("user_id", userID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	before, _ := json.Marshal(map[string]bool{"is_active": !active})
	after, _ := json.Marshal(map[string]bool{"is_active": active})
	u.audit(ctx, model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       model.AuditActionDeactivateUser,
		ResourceType: model.AuditResourceUser,
		ResourceID:   userID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
		CreatedAt:    time.Now(),
	})

	return nil
}

func (u *AdminFarmerUsecase) audit(ctx context.Context, log model.AuditLog) {
	if err := u.auditRepo.Create(ctx, log); err != nil {
		u.logger.Warn("audit log failed",
			zap.String("action", string(log.Action)),
			zap.Int64("resource_id", log.ResourceID),
			zap.Error(err))
	}
}
