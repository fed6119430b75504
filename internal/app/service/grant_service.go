package service

import (
	"context"
	"log"
	"time"

	"github.com/jose-valero/xcg-invite-bot/internal/infra/storage"
)

// Grantor asigna el rol atado a una invite y cierra el ledger.
type Grantor struct {
	guild  GuildAPI
	ledger InviteLedger
}

func NewGrantor(guild GuildAPI, ledger InviteLedger) *Grantor {
	return &Grantor{guild: guild, ledger: ledger}
}

// Grant: el rol target debe existir y quedar estrictamente por debajo del rol
// más alto del bot (restricción de la plataforma; no se puentea).
// Orden: primero el grant, después markUsed — si el write del ledger falla el
// registro queda pending con el rol ya puesto; ventana aceptada, solo se loguea.
func (g *Grantor) Grant(ctx context.Context, guildID, memberID, code string) {
	rec, err := g.ledger.LookupPendingByCode(ctx, code)
	if err == storage.ErrNotFound {
		log.Printf("grant: code=%s ya no está pending (stale o duplicado)", code)
		return
	}
	if err != nil {
		log.Printf("grant: ledger code=%s: %v", code, err)
		return
	}

	roles, err := g.guild.GuildRoles(ctx, guildID)
	if err != nil {
		log.Printf("grant: listar roles guild=%s: %v", guildID, err)
		return
	}
	targetRank := -1
	for _, r := range roles {
		if r.ID == rec.RoleID {
			targetRank = r.Rank
			break
		}
	}
	if targetRank < 0 {
		log.Printf("grant: rol %s no existe en guild=%s", rec.RoleID, guildID)
		return
	}

	botRank, err := g.guild.BotHighestRank(ctx, guildID)
	if err != nil {
		log.Printf("grant: rank del bot guild=%s: %v", guildID, err)
		return
	}
	if targetRank >= botRank {
		log.Printf("grant: jerarquía insuficiente para rol %s (rank %d >= %d), no se asigna", rec.RoleID, targetRank, botRank)
		return
	}

	if err := g.guild.GrantRole(ctx, guildID, memberID, rec.RoleID); err != nil {
		log.Printf("grant: asignar rol %s a member=%s: %v", rec.RoleID, memberID, err)
		return
	}

	ok, err := g.ledger.MarkUsed(ctx, code, memberID, time.Now())
	if err != nil {
		log.Printf("grant: markUsed code=%s: %v (rol ya asignado, queda pending)", code, err)
		return
	}
	if !ok {
		log.Printf("grant: markUsed code=%s sin efecto (stale)", code)
		return
	}
	log.Printf("grant: ✅ rol %s a member=%s via code=%s", rec.RoleID, memberID, code)
}
