package usecase

import (
	"time"

	"ebake/internal/domain/model"
)

// 時刻はテストで差し替える
type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// 注文まわりの計測。nilなら何もしない。
type OrderRecorder interface {
	OrderPlaced(total float64, lines int)
	OrderRejected(kind string)
	StatusChanged(from model.OrderStatus, to model.OrderStatus)
}

type nopRecorder struct{}

func (nopRecorder) OrderPlaced(float64, int)                           {}
func (nopRecorder) OrderRejected(string)                               {}
func (nopRecorder) StatusChanged(model.OrderStatus, model.OrderStatus) {}

func recorderOrNop(r OrderRecorder) OrderRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
