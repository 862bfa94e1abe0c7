package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg/logger"
	"Lee_Forum/internal/repository/store"
)

type SeedWelcome struct {
	Title string `mapstructure:"title"`
	Body  string `mapstructure:"body"`
}

type SeedChannel struct {
	Name    string            `mapstructure:"name"`
	Slug    string            `mapstructure:"slug"`
	Type    model.ChannelType `mapstructure:"type"`
	Welcome *SeedWelcome      `mapstructure:"welcome"`
}

type SeedSection struct {
	Name     string        `mapstructure:"name"`
	Color    string        `mapstructure:"color"`
	Live     bool          `mapstructure:"live"`
	Channels []SeedChannel `mapstructure:"channels"`
}

type SeedReport struct {
	SectionsCreated int
	ChannelsCreated int
	ChannelsSkipped int
	WelcomeThreads  int
	WelcomeRepinned int
}

// SeedService 批量初始化分区、频道和欢迎帖，可重复执行
type SeedService struct {
	repos    *store.Repositories
	channels *ChannelService
	threads  *ThreadService
}

func NewSeedService(repos *store.Repositories, channels *ChannelService, threads *ThreadService) *SeedService {
	return &SeedService{repos: repos, channels: channels, threads: threads}
}

// Seed 按定义顺序执行：
// 分区按名称查找或创建 → 频道按 slug 查找，已存在则跳过 → 新频道排序号为其在定义中的位置 →
// 写入编号为 1 的欢迎帖并在同一事务内加入频道置顶列表。
// 已存在的频道若没有欢迎帖则补上；欢迎帖还在但被取消置顶时重新置顶。
// 单个频道失败不影响其它频道，所有错误合并返回。
func (s *SeedService) Seed(ctx context.Context, creatorID uint64, defs []SeedSection) (*SeedReport, error) {
	report := &SeedReport{}
	var errs []error

	for _, def := range defs {
		sec, created, err := s.ensureSection(ctx, def)
		if err != nil {
			errs = append(errs, fmt.Errorf("section %q: %w", def.Name, err))
			continue
		}
		if created {
			report.SectionsCreated++
		}

		for i, cd := range def.Channels {
			if err := s.seedChannel(ctx, creatorID, sec.ID, i+1, cd, report); err != nil {
				logger.Error("seed channel failed", zap.String("section", def.Name),
					zap.String("channel", cd.Name), zap.Error(err))
				errs = append(errs, fmt.Errorf("channel %q: %w", cd.Name, err))
			}
		}
	}

	if report.SectionsCreated > 0 {
		if _, err := s.repos.Sections.PublishRenumber(ctx); err != nil {
			errs = append(errs, fmt.Errorf("renumber sections: %w", err))
		}
	}
	logger.Info("seed finished",
		zap.Int("sections_created", report.SectionsCreated),
		zap.Int("channels_created", report.ChannelsCreated),
		zap.Int("channels_skipped", report.ChannelsSkipped),
		zap.Int("welcome_threads", report.WelcomeThreads),
		zap.Int("welcome_repinned", report.WelcomeRepinned))
	return report, errors.Join(errs...)
}

func (s *SeedService) ensureSection(ctx context.Context, def SeedSection) (*model.Section, bool, error) {
	sec, err := s.repos.Sections.FindByName(ctx, def.Name)
	if err == nil {
		return sec, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}
	status := model.SectionDraft
	if def.Live {
		status = model.SectionLive
	}
	sec = &model.Section{Name: def.Name, Color: def.Color, Status: status}
	if err := s.repos.Sections.Create(ctx, sec); err != nil {
		return nil, false, err
	}
	return sec, true, nil
}

func (s *SeedService) seedChannel(ctx context.Context, creatorID, sectionID uint64, position int, cd SeedChannel, report *SeedReport) error {
	in := ChannelInput{Name: cd.Name, Slug: cd.Slug, Type: cd.Type, SectionID: &sectionID}
	if err := normalizeChannel(&in); err != nil {
		return err
	}

	ch, err := s.repos.Channels.FindBySlug(ctx, in.Slug)
	existing := err == nil
	switch {
	case existing:
		report.ChannelsSkipped++
	case errors.Is(err, apperr.ErrNotFound):
		ch, err = s.channels.createChannel(ctx, creatorID, in, position)
		if err != nil {
			return err
		}
		report.ChannelsCreated++
	default:
		return err
	}

	if cd.Welcome == nil || cd.Welcome.Title == "" {
		return nil
	}
	title := strings.TrimSpace(cd.Welcome.Title)
	if existing {
		// 已有欢迎帖时只补置顶，不再新建
		t, err := s.repos.Threads.FindWelcome(ctx, ch.ID, title)
		switch {
		case err == nil:
			if slices.Contains(ch.StickyPosts, t.ID) {
				return nil
			}
			_, err = s.repos.Channels.SetSticky(ctx, t.ID, true)
			if err == nil {
				report.WelcomeRepinned++
			}
			return err
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}
	}

	body := cd.Welcome.Body
	if body == "" {
		body = title
	}
	if _, err := s.threads.createThread(ctx, creatorID, ThreadInput{ChannelID: ch.ID, Title: title, Body: &body}, true); err != nil {
		return err
	}
	report.WelcomeThreads++
	return nil
}
