package service

import (
	"context"
	"time"

	"github.com/jose-valero/xcg-invite-bot/internal/domain"
	"github.com/jose-valero/xcg-invite-bot/internal/infra/storage"
)

// Lo implementa internal/adapters/discord.Gateway
type GuildAPI interface {
	ListInvites(ctx context.Context, guildID string) ([]domain.Invite, error)
	CreateInvite(ctx context.Context, channelID string, ttl time.Duration) (domain.Invite, error)
	GuildRoles(ctx context.Context, guildID string) ([]domain.Role, error)
	// Rank más alto entre los roles del bot, leído fresco (nunca cacheado).
	BotHighestRank(ctx context.Context, guildID string) (int, error)
	GrantRole(ctx context.Context, guildID, memberID, roleID string) error
}

// Lo implementa internal/infra/storage.InviteRepo
type InviteLedger interface {
	Create(ctx context.Context, rec storage.InviteRecord) error
	LookupPendingByCode(ctx context.Context, code string) (storage.InviteRecord, error)
	LookupMostRecentPending(ctx context.Context) (storage.InviteRecord, error)
	LookupPendingByEmail(ctx context.Context, email string) (storage.InviteRecord, error)
	LookupForMember(ctx context.Context, memberID string) (storage.InviteRecord, error)
	ListPending(ctx context.Context, limit int) ([]storage.InviteRecord, error)
	MarkUsed(ctx context.Context, code, memberID string, usedAt time.Time) (bool, error)
	MarkExpired(ctx context.Context, code string) error
}

// Lo implementa internal/infra/storage.AttributionRepo
type AttributionStore interface {
	Record(ctx context.Context, a storage.MemberAttribution) error
	Lookup(ctx context.Context, guildID, memberID string) (storage.MemberAttribution, error)
}

// Lo implementa internal/adapters/mailer.Mailer
type Mailer interface {
	SendInvite(email, inviteURL string, expiresAt time.Time) error
}
