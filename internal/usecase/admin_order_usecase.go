package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ebake/internal/domain/model"
	repo "ebake/internal/repository"
	"ebake/internal/validator"

	"github.com/google/uuid"
)

type AdminOrderUsecase struct {
	tx      repo.TransactionManager
	clock   Clock
	metrics OrderRecorder
	view    orderPresenter
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	cakes repo.CakeRepository,
	users repo.UserRepository,
	clock Clock,
	metrics OrderRecorder,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:      tx,
		clock:   clock,
		metrics: recorderOrNop(metrics),
		view:    orderPresenter{cakes: cakes, users: users},
	}
}

type StatusTransitionOutput struct {
	Order   OrderView
	Message string
}

// ステータス更新（PATCH /orders/:id/status）
// 終端状態からの再遷移も許す。キャンセルには理由が必須。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor model.Actor, orderID string, in validator.UpdateOrderStatusRequest) (StatusTransitionOutput, error) {
	if !actor.IsAdmin() {
		return StatusTransitionOutput{}, newKindError(http.StatusForbidden, KindForbiddenRole, "admin only")
	}

	next, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return StatusTransitionOutput{}, newKindError(http.StatusBadRequest, KindInvalidStatus, "invalid status")
	}

	reason := strings.TrimSpace(in.CancellationReason)
	in.CancellationReason = reason
	if next == model.OrderStatusCancelled && reason == "" {
		return StatusTransitionOutput{}, newKindError(http.StatusBadRequest, KindMissingCancellationReason,
			"cancellation reason is required when cancelling an order")
	}
	if err := validator.Struct(in); err != nil {
		return StatusTransitionOutput{}, fromValidation(err)
	}

	if _, err := uuid.Parse(orderID); err != nil {
		return StatusTransitionOutput{}, newKindError(http.StatusNotFound, KindOrderNotFound, "order not found")
	}

	var updated model.Order
	var before model.OrderStatus
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		before = o.Status

		//理由はキャンセルのときだけ書く
		var reasonPtr *string
		if next == model.OrderStatusCancelled {
			reasonPtr = &reason
		}
		if err := r.Orders().UpdateStatus(ctx, orderID, next, reasonPtr); err != nil {
			return err
		}

		// ★監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   statusJSON(o.Status, o.CancellationReason),
			AfterJSON:    statusJSON(next, reasonPtr),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return err
		}

		updated, err = r.Orders().FindByID(ctx, orderID)
		return err
	})
	if errors.Is(err, repo.ErrNotFound) {
		return StatusTransitionOutput{}, newKindError(http.StatusNotFound, KindOrderNotFound, "order not found")
	}
	if err != nil {
		return StatusTransitionOutput{}, storeError(err, "error updating order status")
	}

	u.metrics.StatusChanged(before, next)

	msg := "Order status updated to " + string(next)
	if next == model.OrderStatusCancelled {
		msg = "Order cancelled successfully with reason: " + reason
	}

	return StatusTransitionOutput{
		Order:   u.view.presentOne(ctx, updated),
		Message: msg,
	}, nil
}

func statusJSON(status model.OrderStatus, reason *string) string {
	v := map[string]interface{}{"status": status}
	if reason != nil {
		v["cancellationReason"] = *reason
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
