package handler

import (
	"net/http"

	"ebake/internal/domain/model"
	"ebake/internal/middleware"
	"ebake/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// 全レスポンス共通の形 {success, message?, data?, error?}
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Kind    usecase.ErrorKind    `json:"kind"`
	Message string               `json:"message"`
	Details []usecase.FieldError `json:"details,omitempty"`
	// 開発モードのみ
	Cause string `json:"cause,omitempty"`
}

// 成功/失敗レスポンスを書く。5xxはここでログに残す。
type Responder struct {
	Log   *logrus.Entry
	Debug bool
}

func NewResponder(log *logrus.Entry, debug bool) Responder {
	return Responder{Log: log, Debug: debug}
}

func (r Responder) ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func (r Responder) created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func (r Responder) writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	he, ok := usecase.AsHTTPError(err)
	if !ok {
		//500
		he = &usecase.HTTPError{
			Status:  http.StatusInternalServerError,
			Kind:    usecase.KindInternal,
			Message: "internal error",
			Cause:   err,
		}
	}

	body := &ErrorBody{Kind: he.Kind, Message: he.Message, Details: he.Details}

	if he.Status >= http.StatusInternalServerError {
		if r.Log != nil {
			r.Log.WithFields(logrus.Fields{
				"kind":   he.Kind,
				"status": he.Status,
				"route":  c.Path(),
			}).WithError(he.Cause).Error(he.Message)
		}
		if r.Debug && he.Cause != nil {
			body.Cause = he.Cause.Error()
		}
	}

	return c.JSON(he.Status, Envelope{Success: false, Message: he.Message, Error: body})
}

func (r Responder) badRequest(c echo.Context, message string, details ...usecase.FieldError) error {
	return r.writeError(c, &usecase.HTTPError{
		Status:  http.StatusBadRequest,
		Kind:    usecase.KindValidationFailed,
		Message: message,
		Details: details,
	})
}

// AuthJWTの後ろでだけ使う
func actorFromContext(c echo.Context) (model.Actor, bool) {
	return middleware.ActorFrom(c)
}

func (r Responder) unauthorized(c echo.Context) error {
	return r.writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized"))
}
