package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"Lee_Forum/internal/config"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/pkg/logger"
	"Lee_Forum/internal/repository/store"
	"Lee_Forum/internal/service"
)

// loadSeed 读取 seed 文件里的 sections 列表
func loadSeed(path string) ([]service.SeedSection, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var defs []service.SeedSection
	if err := v.UnmarshalKey("sections", &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func main() {
	configName := flag.String("config", "config", "config file name under ./config, without extension")
	seedFile := flag.String("file", "config/seed.yaml", "seed definition file")
	adminPrincipal := flag.String("admin", "system|seed", "principal that owns seeded channels and threads")
	tokenFor := flag.String("token-for", "", "print a development token for this principal and exit")
	flag.Parse()

	cfg, err := config.Load(*configName)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(true, cfg.Log.Level); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if *tokenFor != "" {
		tok, err := pkg.NewTokenVerifier(cfg.Auth.Secret, cfg.Auth.Issuer).Issue(*tokenFor, *tokenFor, "", 24*time.Hour)
		if err != nil {
			logger.L().Fatal("issue token", zap.Error(err))
		}
		fmt.Println(tok)
		return
	}

	defs, err := loadSeed(*seedFile)
	if err != nil {
		logger.L().Fatal("load seed file", zap.String("file", *seedFile), zap.Error(err))
	}

	db, err := store.Open(cfg.Database)
	if err != nil {
		logger.L().Fatal("open database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.L().Fatal("migrate", zap.Error(err))
	}
	repos := store.NewRepositories(db)
	identity := service.NewIdentityService(repos, nil)
	channels := service.NewChannelService(repos, identity)
	threads := service.NewThreadService(repos, identity, nil)

	ctx := context.Background()
	owner, err := identity.EnsureUser(ctx, *adminPrincipal, "System", "")
	if err != nil {
		logger.L().Fatal("ensure seed owner", zap.Error(err))
	}
	if owner.EffectiveRole() != model.RoleAdmin {
		if err := repos.Users.UpdateFields(ctx, owner.ID, map[string]any{"role": model.RoleAdmin}); err != nil {
			logger.L().Fatal("promote seed owner", zap.Error(err))
		}
	}

	report, err := service.NewSeedService(repos, channels, threads).Seed(ctx, owner.ID, defs)
	fmt.Printf("sections created: %d, channels created: %d, skipped: %d, welcome threads: %d, re-pinned: %d\n",
		report.SectionsCreated, report.ChannelsCreated, report.ChannelsSkipped, report.WelcomeThreads, report.WelcomeRepinned)
	if err != nil {
		logger.L().Fatal("seed finished with errors", zap.Error(err))
	}
}
