package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ebake/internal/config"
	"ebake/internal/handler"
	"ebake/internal/infra/db"
	infraRepo "ebake/internal/infra/repository"
	"ebake/internal/infra/storage"
	"ebake/internal/metrics"
	"ebake/internal/repository"
	"ebake/internal/server"
	"ebake/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func newLogger(cfg config.Config) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if cfg.IsDevelopment() {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	return l.WithField("service", "ebake-api")
}

// MinIOが設定されていればそちら、なければローカルディスク
func newImageStore(ctx context.Context, cfg config.Config, log *logrus.Entry) (repository.ImageStore, string, error) {
	if cfg.MinioEnabled() {
		store, err := storage.NewMinioImageStore(cfg)
		if err != nil {
			return nil, "", err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, "", err
		}
		log.WithField("bucket", cfg.MinioBucket).Info("image store: minio")
		return store, "", nil
	}

	store, err := storage.NewLocalImageStore(cfg.UploadDir)
	if err != nil {
		return nil, "", err
	}
	log.WithField("dir", store.Dir()).Info("image store: local")
	return store, store.Dir(), nil
}

func main() {
	// .envは任意（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg, log.WithField("component", "gorm"))
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.WithError(err).Fatal("database handle")
	}
	defer func() { _ = sqlDB.Close() }()

	//Repository（GORM実装）生成
	cakeRepo := infraRepo.NewCakeGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	images, uploadDir, err := newImageStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("image store")
	}

	//メトリクス
	orderMetrics := metrics.NewOrderMetrics()
	httpMetrics := metrics.NewHTTPMetrics()

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//Usecase生成
	cakeUC := usecase.NewCakeUsecase(cakeRepo, txm, images, idGen, clock)
	orderUC := usecase.NewOrderUsecase(orderRepo, cakeRepo, userRepo, idGen, clock, cfg.Location, orderMetrics)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, cakeRepo, userRepo, clock, orderMetrics)
	auditUC := usecase.NewAuditLogUsecase(auditRepo, cfg.Location)

	//Handler生成
	resp := handler.NewResponder(log.WithField("component", "handler"), cfg.IsDevelopment())
	handlers := server.Handlers{
		Cake:      handler.NewCakeHandler(cakeUC, resp),
		AdminCake: handler.NewAdminCakeHandler(cakeUC, resp, cfg.MaxImageBytes),
		Order:     handler.NewOrderHandler(orderUC, adminOrderUC, resp),
		AuditLog:  handler.NewAuditLogHandler(auditUC, resp),
		Health:    handler.NewHealthHandler(sqlDB, resp),
	}

	e := server.New(cfg, log.WithField("component", "http"), handlers, server.Options{
		UploadDir: uploadDir,
		Metrics:   httpMetrics,
	})

	//Server起動
	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}

	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.GoEnv}).Info("server starting")
	if err := server.Start(ctx, e, addr); err != nil {
		log.WithError(err).Fatal("server")
	}
	log.Info("server stopped")
}
