package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"Lee_Forum/internal/config"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/pkg/logger"
	"Lee_Forum/internal/repository/store"
)

// Sender 投递一条 outbox 事件；返回错误则该事件稍后重试
type Sender func(ctx context.Context, ob *model.Outbox) error

const defaultMaxRetry = 5

// OutboxRelayer 定时把 outbox 表中的待投递事件交给 Sender
type OutboxRelayer struct {
	repo      *store.OutboxRepository
	batchSize int
	interval  time.Duration
	maxRetry  int
	sender    Sender
}

func NewOutboxRelayer(repos *store.Repositories, cfg config.Outbox, sender Sender) *OutboxRelayer {
	r := &OutboxRelayer{
		repo:      repos.Outbox,
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		maxRetry:  defaultMaxRetry,
		sender:    sender,
	}
	if r.batchSize <= 0 {
		r.batchSize = 200
	}
	if r.interval <= 0 {
		r.interval = time.Second
	}
	return r
}

// Run 阻塞直到 ctx 结束
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.DrainOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("outbox drain failed", zap.Error(err))
			}
		}
	}
}

// DrainOnce 投递一批事件，返回成功条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) (int, error) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			logger.Warn("outbox send failed", zap.Uint64("id", ob.ID),
				zap.String("type", ob.EventType), zap.Int("retry", ob.Retry), zap.Error(err))
			if err := r.repo.RetryUpdate(ctx, ob.ID, r.maxRetry); err != nil {
				return sent, err
			}
			continue
		}
		if err := r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// LogSender 只打日志，未配置 Kafka 时使用
func LogSender(_ context.Context, ob *model.Outbox) error {
	logger.Info("outbox event", zap.String("event_id", ob.EventID), zap.String("type", ob.EventType),
		zap.Uint64("aggregate_id", ob.AggregateID), zap.String("payload", ob.Payload))
	return nil
}

// EventPublisher pkg.KafkaProducer 满足该接口
type EventPublisher interface {
	Send(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// KafkaSender 以聚合 ID 为 key 发到 Kafka
func KafkaSender(p EventPublisher) Sender {
	return func(ctx context.Context, ob *model.Outbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.AggregateID), []byte(ob.Payload), map[string]string{
			"event_id":   ob.EventID,
			"event_type": ob.EventType,
		})
	}
}

// FanOut 依次调用每个 sender，任何一个失败都算失败
func FanOut(senders ...Sender) Sender {
	return func(ctx context.Context, ob *model.Outbox) error {
		for _, s := range senders {
			if err := s(ctx, ob); err != nil {
				return err
			}
		}
		return nil
	}
}

// MailFunc 发送一封 HTML 邮件
type MailFunc func(to, subject, htmlBody string) error

// SMTPMail 用 gomail 发信
func SMTPMail(cfg config.SMTP) MailFunc {
	smtp := pkg.SMTPConfig{Host: cfg.Host, Port: cfg.Port, Username: cfg.Username, Password: cfg.Password, From: cfg.From}
	return func(to, subject, htmlBody string) error {
		return pkg.SendEmail(smtp, to, subject, htmlBody)
	}
}

type mentionPayload struct {
	CommentID uint64 `json:"comment_id"`
	ThreadID  uint64 `json:"thread_id"`
	AuthorID  uint64 `json:"author_id"`
	UserID    uint64 `json:"user_id"`
}

const excerptLen = 200

// MentionMailer 只处理 user.mentioned 事件；被提及用户没有邮箱或相关记录已删除时直接跳过
func MentionMailer(repos *store.Repositories, mail MailFunc) Sender {
	return func(ctx context.Context, ob *model.Outbox) error {
		if ob.EventType != model.EventUserMentioned {
			return nil
		}
		var p mentionPayload
		if err := json.Unmarshal([]byte(ob.Payload), &p); err != nil {
			// 坏数据重试也没用
			logger.Error("bad mention payload", zap.Uint64("id", ob.ID), zap.Error(err))
			return nil
		}
		users, err := repos.Users.FindByIDs(ctx, []uint64{p.UserID, p.AuthorID})
		if err != nil {
			return err
		}
		target, ok := users[p.UserID]
		if !ok || target.Email == "" {
			return nil
		}
		author := "Someone"
		if a, ok := users[p.AuthorID]; ok {
			author = a.DisplayName
		}
		thread, err := repos.Threads.FindByID(ctx, p.ThreadID)
		if err != nil {
			return ignoreNotFound(err)
		}
		comment, err := repos.Comments.FindByID(ctx, p.CommentID)
		if err != nil {
			return ignoreNotFound(err)
		}
		excerpt := []rune(comment.Body)
		if len(excerpt) > excerptLen {
			excerpt = append(excerpt[:excerptLen], '…')
		}
		subject := fmt.Sprintf("%s mentioned you in %q", author, thread.Title)
		return mail(target.Email, subject, pkg.MentionHTML(author, thread.Title, string(excerpt)))
	}
}
