package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/xcg-invite-bot/internal/domain"
)

// Gateway adapta la sesión de discordgo a los puertos del service.
type Gateway struct {
	s *discordgo.Session
}

func NewGateway(s *discordgo.Session) *Gateway { return &Gateway{s: s} }

func (g *Gateway) ListInvites(ctx context.Context, guildID string) ([]domain.Invite, error) {
	invs, err := g.s.GuildInvites(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invite, 0, len(invs))
	for _, in := range invs {
		out = append(out, domain.Invite{GuildID: guildID, Code: in.Code, Uses: in.Uses})
	}
	return out, nil
}

// CreateInvite: single-use, única (no recicla una invite equivalente previa)
// y con MaxAge = TTL; la plataforma la borra sola al consumirse o vencer.
func (g *Gateway) CreateInvite(ctx context.Context, channelID string, ttl time.Duration) (domain.Invite, error) {
	inv, err := g.s.ChannelInviteCreate(channelID, discordgo.Invite{
		MaxAge:  int(ttl.Seconds()),
		MaxUses: 1,
		Unique:  true,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return domain.Invite{}, err
	}
	out := domain.Invite{Code: inv.Code, Uses: inv.Uses}
	if inv.Guild != nil {
		out.GuildID = inv.Guild.ID
	}
	return out, nil
}

func (g *Gateway) GuildRoles(ctx context.Context, guildID string) ([]domain.Role, error) {
	roles, err := g.s.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, domain.Role{ID: r.ID, Rank: r.Position})
	}
	return out, nil
}

// BotHighestRank: position más alta entre los roles del propio bot,
// leída fresca contra la API (la jerarquía puede cambiar en caliente).
func (g *Gateway) BotHighestRank(ctx context.Context, guildID string) (int, error) {
	me, err := g.s.GuildMember(guildID, g.s.State.User.ID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	roles, err := g.s.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	byID := make(map[string]*discordgo.Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	top := 0
	for _, rid := range me.Roles {
		if r, ok := byID[rid]; ok && r.Position > top {
			top = r.Position
		}
	}
	return top, nil
}

func (g *Gateway) GrantRole(ctx context.Context, guildID, memberID, roleID string) error {
	return g.s.GuildMemberRoleAdd(guildID, memberID, roleID, discordgo.WithContext(ctx))
}
