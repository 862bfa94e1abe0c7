package store

import "gorm.io/gorm"

// Repositories 一次性构造全部仓储，共用同一个 *gorm.DB
type Repositories struct {
	DB        *gorm.DB
	Users     *UserRepository
	Sections  *SectionRepository
	Channels  *ChannelRepository
	Threads   *ThreadRepository
	Comments  *CommentRepository
	Polls     *PollRepository
	Reactions *ReactionRepository
	Outbox    *OutboxRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:        db,
		Users:     NewUserRepository(db),
		Sections:  NewSectionRepository(db),
		Channels:  NewChannelRepository(db),
		Threads:   NewThreadRepository(db),
		Comments:  NewCommentRepository(db),
		Polls:     NewPollRepository(db),
		Reactions: NewReactionRepository(db),
		Outbox:    NewOutboxRepository(db),
	}
}
