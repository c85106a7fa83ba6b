package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ebake/internal/config"
	"ebake/internal/handler"
	"ebake/internal/metrics"
	"ebake/internal/middleware"
	"ebake/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Handlers はルート登録に必要なハンドラ一式
type Handlers struct {
	Cake      *handler.CakeHandler
	AdminCake *handler.AdminCakeHandler
	Order     *handler.OrderHandler
	AuditLog  *handler.AuditLogHandler
	Health    *handler.HealthHandler
}

// Options はルート以外の組み立て設定
type Options struct {
	// 空ならローカル画像の配信はしない（MinIO利用時）
	UploadDir string
	Metrics   *metrics.HTTPMetrics
}

// New はミドルウェアとルートを載せたechoを返す
func New(cfg config.Config, log *logrus.Entry, h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.EchoValidator{}

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	if opts.Metrics != nil {
		e.Use(middleware.Metrics(opts.Metrics))
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.FEURL},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
	}))
	// 画像アップロード分＋余裕
	e.Use(echomw.BodyLimit(bodyLimit(cfg.MaxImageBytes)))
	if cfg.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
			Timeout: cfg.RequestTimeout,
		}))
	}

	if opts.UploadDir != "" {
		e.Static("/uploads", opts.UploadDir)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	RegisterRoutes(e, cfg, h)
	return e
}

func bodyLimit(maxImage int64) string {
	if maxImage <= 0 {
		return "10M"
	}
	return strconv.FormatInt(maxImage+1024*1024, 10)
}

// Start はctxが終わるまでサーバーを動かす
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
