package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jose-valero/xcg-invite-bot/internal/infra/storage"
)

var ErrPendingExists = errors.New("ya hay una invitación pendiente para ese email")

// IssueService emite invites de un solo uso atadas a email + rol.
type IssueService struct {
	guild     GuildAPI
	ledger    InviteLedger
	mailer    Mailer // opcional; sin SMTP se loguea el link
	channelID string
	ttl       time.Duration
}

func NewIssueService(guild GuildAPI, ledger InviteLedger, mailer Mailer, channelID string, ttl time.Duration) *IssueService {
	return &IssueService{guild: guild, ledger: ledger, mailer: mailer, channelID: channelID, ttl: ttl}
}

// Issue crea la invite en la plataforma, inserta el registro pending y manda
// el mail. Un pending vigente para el mismo email rechaza el pedido; uno
// vencido se expira primero y recién ahí se regenera — ese ciclo es lo que
// sostiene el invariante de un solo pending por email a través del TTL.
func (s *IssueService) Issue(ctx context.Context, email, roleID string) (storage.InviteRecord, error) {
	existing, err := s.ledger.LookupPendingByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ExpiresAt.After(time.Now()) {
			return storage.InviteRecord{}, ErrPendingExists
		}
		if err := s.ledger.MarkExpired(ctx, existing.Code); err != nil {
			return storage.InviteRecord{}, fmt.Errorf("expirar %s: %w", existing.Code, err)
		}
	case err != storage.ErrNotFound:
		return storage.InviteRecord{}, err
	}

	inv, err := s.guild.CreateInvite(ctx, s.channelID, s.ttl)
	if err != nil {
		return storage.InviteRecord{}, fmt.Errorf("crear invite: %w", err)
	}

	now := time.Now()
	rec := storage.InviteRecord{
		Code:      inv.Code,
		RoleID:    roleID,
		Email:     email,
		Status:    storage.StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.ledger.Create(ctx, rec); err != nil {
		return storage.InviteRecord{}, fmt.Errorf("registrar invite %s: %w", inv.Code, err)
	}

	link := "https://discord.gg/" + inv.Code
	if s.mailer != nil {
		if err := s.mailer.SendInvite(email, link, rec.ExpiresAt); err != nil {
			// la invitación ya quedó emitida y registrada; el mail se pierde
			log.Printf("issue: mail a %s: %v", email, err)
		}
	} else {
		log.Printf("issue: sin SMTP configurado, link para %s: %s", email, link)
	}
	return rec, nil
}

func (s *IssueService) Pending(ctx context.Context, limit int) ([]storage.InviteRecord, error) {
	return s.ledger.ListPending(ctx, limit)
}
