package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"go.uber.org/zap"
)

// out_for_delivery遷移で立てる配達予定の猶予
const estimatedDeliveryLead = 2 * time.Hour

// 配達指標の集計ウィンドウ
const deliveryMetricsWindow = 30 * 24 * time.Hour

type transitionContext struct {
	ActorID int64
	Note    string
	Now     time.Time
}

// 遷移後フック。遷移先ステータスごとに1つ。
// 同じトランザクションの中で実行され、失敗したら遷移ごとロールバックされる。
type transitionHook func(ctx context.Context, r repo.TxRepos, o *model.Order, t transitionContext) error

// StatusUsecase は注文ライフサイクルの遷移を検証・適用する。
// 遷移表はmodel.OrderTransitions。ここは副作用をフック表に寄せて、
// 検証そのものは純粋に保つ。
type StatusUsecase struct {
	tx     repo.TransactionManager
	logger *zap.Logger
	hooks  map[model.OrderStatus]transitionHook
}

func NewStatusUsecase(tx repo.TransactionManager, logger *zap.Logger) *StatusUsecase {
	u := &StatusUsecase{tx: tx, logger: logger}

	u.hooks = map[model.OrderStatus]transitionHook{
		//配達に出たら予定時刻を今＋2時間で立てる
		model.OrderStatusOutForDelivery: func(ctx context.Context, r repo.TxRepos, o *model.Order, t transitionContext) error {
			estimated := t.Now.Add(estimatedDeliveryLead)
			o.EstimatedDeliveryTime = &estimated
			return nil
		},

		//配達完了の実時刻
		model.OrderStatusDelivered: func(ctx context.Context, r repo.TxRepos, o *model.Order, t transitionContext) error {
			actual := t.Now
			o.ActualDeliveryTime = &actual
			return nil
		},

		//キャンセル：明細ごとに在庫を戻し、理由を残す
		model.OrderStatusCancelled: func(ctx context.Context, r repo.TxRepos, o *model.Order, t transitionContext) error {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
			o.CancellationReason = t.Note
			return nil
		},
	}

	return u
}

type UpdateStatusOutput struct {
	OrderID    int64  `json:"order_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// 遷移を検証して適用する。1トランザクションで
// (a) ordersの status と行内JSON履歴の更新
// (b) order_status_history への追記
// (c) 遷移先フックの副作用
// を行い、どれかが失敗したら全部ロールバック。
func (u *StatusUsecase) UpdateOrderStatus(ctx context.Context, actor Identity, orderID int64, newStatus model.OrderStatus, note string) (UpdateStatusOutput, error) {
	if !actor.Authenticated() {
		return UpdateStatusOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return UpdateStatusOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !newStatus.Valid() {
		return UpdateStatusOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown status %q", string(newStatus)))
	}

	note = strings.TrimSpace(note)

	var out UpdateStatusOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			u.logger.Error("load order failed", zap.Int64("order_id", orderID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//遷移表チェック（refundedからの遷移もここで弾かれる）
		if !model.CanTransition(o.Status, newStatus) {
			return NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("invalid status transition from %s to %s", o.Status, newStatus))
		}

		now := time.Now()
		from := o.Status
		o.Status = newStatus

		//行内JSON履歴に追記
		appended, err := appendHistoryJSON(o.StatusHistoryJSON, model.StatusHistoryEntry{
			Status:    newStatus,
			ChangedBy: actor.UserID,
			Note:      note,
			Timestamp: now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		o.StatusHistoryJSON = appended

		//遷移先フック
		if hook, ok := u.hooks[newStatus]; ok {
			if err := hook(ctx, r, &o, transitionContext{ActorID: actor.UserID, Note: note, Now: now}); err != nil {
				u.logger.Error("transition hook failed",
					zap.Int64("order_id", orderID),
					zap.String("to", string(newStatus)),
					zap.Error(err))
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Orders().SaveTransition(ctx, o); err != nil {
			u.logger.Error("save transition failed", zap.Int64("order_id", orderID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//履歴テーブルにも追記
		if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
			OrderID:   orderID,
			Status:    newStatus,
			ChangedBy: actor.UserID,
			Note:      note,
			CreatedAt: now,
		}); err != nil {
			u.logger.Error("append status history failed", zap.Int64("order_id", orderID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = UpdateStatusOutput{
			OrderID:    orderID,
			FromStatus: string(from),
			ToStatus:   string(newStatus),
		}
		return nil
	})

	if err != nil {
		return UpdateStatusOutput{}, err
	}
	return out, nil
}

// 注文の全履歴。新しい順、操作者の名前とロール付き。
func (u *StatusUsecase) GetOrderTimeline(ctx context.Context, orderID int64) ([]repo.TimelineEntry, error) {
	if orderID <= 0 {
		return []repo.TimelineEntry{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var entries []repo.TimelineEntry

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		var err error
		entries, err = r.StatusHistory().ListByOrderID(ctx, orderID)
		if err != nil {
			u.logger.Error("load timeline failed", zap.Int64("order_id", orderID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return []repo.TimelineEntry{}, err
	}
	return entries, nil
}

// 直近30日の配達指標。配達0件なら on_time_percentage=0。
func (u *StatusUsecase) GetDeliveryMetrics(ctx context.Context) (repo.DeliveryMetrics, error) {
	since := time.Now().Add(-deliveryMetricsWindow)

	var m repo.DeliveryMetrics

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		m, err = r.Orders().DeliveryMetrics(ctx, since)
		if err != nil {
			u.logger.Error("delivery metrics failed", zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return repo.DeliveryMetrics{}, err
	}
	return m, nil
}

// 遷移表の単純な引き。未知・終端は空。
func (u *StatusUsecase) PossibleNextStatuses(current model.OrderStatus) []model.OrderStatus {
	return model.NextStatuses(current)
}

func appendHistoryJSON(raw string, entry model.StatusHistoryEntry) (string, error) {
	var entries []model.StatusHistoryEntry
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			//壊れた既存JSONは捨てずに作り直す（正は履歴テーブル）
			entries = []model.StatusHistoryEntry{}
		}
	}

	entries = append(entries, entry)

	b, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
