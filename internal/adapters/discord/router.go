package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/xcg-invite-bot/internal/app/service"
	"github.com/jose-valero/xcg-invite-bot/internal/domain"
)

type Router struct {
	s       *discordgo.Session
	guildID string

	members *service.MemberService
	issues  *service.IssueService

	adminRoleIDs []string
	limiter      *userLimiter
}

func NewRouter(
	s *discordgo.Session,
	guildID string,
	members *service.MemberService,
	issues *service.IssueService,
	adminRoleIDs []string,
) *Router {
	return &Router{
		s:            s,
		guildID:      guildID,
		members:      members,
		issues:       issues,
		adminRoleIDs: adminRoleIDs,
		limiter:      newUserLimiter(10 * time.Second),
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	// Eventos del gateway
	r.s.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.GuildID != r.guildID || m.User == nil {
			return
		}
		defer step("join " + m.User.ID)()
		ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
		defer cancel()
		r.members.HandleJoin(ctx, domain.MemberEvent{
			GuildID:  m.GuildID,
			MemberID: m.User.ID,
			Pending:  m.Pending,
		})
	})

	r.s.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		if m.GuildID != r.guildID || m.User == nil || m.Pending {
			return
		}
		// solo interesa la transición pending -> no pending; si no hay
		// BeforeUpdate se deja pasar y el guard de pending del ledger absorbe
		// los updates repetidos
		if m.BeforeUpdate != nil && !m.BeforeUpdate.Pending {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
		defer cancel()
		r.members.HandleGateClear(ctx, domain.MemberEvent{
			GuildID:  m.GuildID,
			MemberID: m.User.ID,
			Pending:  false,
		})
	})

	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InviteCreate) {
		if ic.GuildID != r.guildID {
			return
		}
		r.members.HandleInviteCreated(domain.Invite{GuildID: ic.GuildID, Code: ic.Code, Uses: ic.Uses})
	})

	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InviteDelete) {
		if ic.GuildID != r.guildID {
			return
		}
		r.members.HandleInviteDeleted(ic.GuildID, ic.Code)
	})

	// Slash commands
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		data := ic.ApplicationCommandData()
		if data.Name != "invite" {
			return
		}
		log.Printf("slash: /%s by=%s guild=%s", data.Name, ic.Member.User.ID, ic.GuildID)

		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic in slash /%s: %v", data.Name, rec)
				ReplyEphemeral(s, ic, "⚠️ Ocurrió un error inesperado.")
			}
		}()

		_ = DeferEphemeral(s, ic)
		if !r.requireAdminOrRoles(s, ic) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
		defer cancel()

		sub, _ := subcmdName(ic)
		switch sub {
		case "create":
			if !r.limiter.Allow(ic.Member.User.ID) {
				ReplyEphemeral(s, ic, "⏳ Esperá unos segundos antes de emitir otra invitación.")
				return
			}
			email, _ := optStr(ic, "email")
			roleID, _ := optRoleID(ic, "role")
			email = strings.TrimSpace(strings.ToLower(email))
			if email == "" || !strings.Contains(email, "@") || roleID == "" {
				ReplyEphemeral(s, ic, "⚠️ Necesito un email válido y un rol.")
				return
			}
			rec, err := r.issues.Issue(ctx, email, roleID)
			if err == service.ErrPendingExists {
				ReplyEphemeral(s, ic, "ℹ️ Ya hay una invitación pendiente para ese email.")
				return
			}
			if err != nil {
				ReplyEphemeral(s, ic, "⚠️ No pude emitir la invitación: "+err.Error())
				return
			}
			ReplyEphemeral(s, ic, fmt.Sprintf(
				"✅ Invitación `%s` emitida para **%s** (rol <@&%s>), vence <t:%d:R>.",
				rec.Code, rec.Email, rec.RoleID, rec.ExpiresAt.Unix(),
			))

		case "pending":
			items, err := r.issues.Pending(ctx, 25)
			if err != nil {
				ReplyEphemeral(s, ic, "⚠️ No pude leer las invitaciones: "+err.Error())
				return
			}
			if len(items) == 0 {
				ReplyEphemeral(s, ic, "ℹ️ No hay invitaciones pendientes.")
				return
			}
			out := "📋 **Invitaciones pendientes**\n"
			for i, it := range items {
				out += fmt.Sprintf("%d) `%s` — %s → <@&%s>, vence <t:%d:R>\n",
					i+1, it.Code, it.Email, it.RoleID, it.ExpiresAt.Unix())
			}
			ReplyEphemeral(s, ic, out)

		default:
			ReplyEphemeral(s, ic, "Usa `/invite create` o `/invite pending`.")
		}
	})
}
