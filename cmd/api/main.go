package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Lee_Forum/internal/config"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/pkg/logger"
	rediscache "Lee_Forum/internal/repository/redis"
	"Lee_Forum/internal/repository/store"
	"Lee_Forum/internal/router"
	"Lee_Forum/internal/service"
)

func main() {
	configName := flag.String("config", "config", "config file name under ./config, without extension")
	flag.Parse()

	cfg, err := config.Load(*configName)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Development, cfg.Log.Level); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := store.Open(cfg.Database)
	if err != nil {
		logger.L().Fatal("open database", zap.Error(err))
	}
	// 自动建表（开发阶段 OK）
	if err := store.Migrate(db); err != nil {
		logger.L().Fatal("migrate", zap.Error(err))
	}
	repos := store.NewRepositories(db)

	// Redis 可选；未配置时所有读直接走数据库
	var (
		identityCache service.IdentityCache
		reactionCache service.ReactionCache
		locker        service.Locker
	)
	if cfg.Redis.Addr != "" {
		rdb, err := rediscache.NewClient(cfg.Redis)
		if err != nil {
			logger.L().Fatal("connect redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rdb.Close()
		identityCache = rediscache.NewIdentityCache(rdb)
		reactionCache = rediscache.NewReactionCache(rdb)
		locker = rediscache.NewDistLock(rdb)
	}

	identity := service.NewIdentityService(repos, identityCache)
	channels := service.NewChannelService(repos, identity)
	threads := service.NewThreadService(repos, identity, reactionCache)

	// outbox 投递：有 Kafka 就发 Kafka，否则只打日志；配置了 SMTP 再加上提及邮件
	sender := service.Sender(service.LogSender)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}
	if cfg.SMTP.Host != "" {
		sender = service.FanOut(sender, service.MentionMailer(repos, service.SMTPMail(cfg.SMTP)))
	}
	relayer := service.NewOutboxRelayer(repos, cfg.Outbox, sender)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go relayer.Run(ctx)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := router.InitRouter(router.Deps{
		Verifier:  pkg.NewTokenVerifier(cfg.Auth.Secret, cfg.Auth.Issuer),
		Identity:  identity,
		Sections:  service.NewSectionService(repos, identity),
		Channels:  channels,
		Threads:   threads,
		Comments:  service.NewCommentService(repos, identity, reactionCache),
		Polls:     service.NewPollService(repos, identity),
		Reactions: service.NewReactionService(repos, identity, reactionCache, locker),
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("forum api listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
