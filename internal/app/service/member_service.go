package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jose-valero/xcg-invite-bot/internal/domain"
	"github.com/jose-valero/xcg-invite-bot/internal/infra/storage"
)

// MemberService orquesta joins y levantadas del gate de screening.
// Serializa por guild: dos joins pegados no deben leer el mismo snapshot viejo
// ni pasar los dos el chequeo de pending antes del markUsed.
type MemberService struct {
	guild    GuildAPI
	cache    *UsageCache
	attr     *Attributor
	grantor  *Grantor
	outcomes AttributionStore
	ledger   InviteLedger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMemberService(guild GuildAPI, cache *UsageCache, attr *Attributor, grantor *Grantor, outcomes AttributionStore, ledger InviteLedger) *MemberService {
	return &MemberService{
		guild:    guild,
		cache:    cache,
		attr:     attr,
		grantor:  grantor,
		outcomes: outcomes,
		ledger:   ledger,
		locks:    map[string]*sync.Mutex{},
	}
}

func (s *MemberService) lockGuild(guildID string) func() {
	s.mu.Lock()
	l, ok := s.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[guildID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Bootstrap llena el snapshot inicial del guild al arrancar; un fallo acá
// no es fatal, el primer join resincroniza igual.
func (s *MemberService) Bootstrap(ctx context.Context, guildID string) {
	invites, err := s.guild.ListInvites(ctx, guildID)
	if err != nil {
		log.Printf("bootstrap: listar invites guild=%s: %v", guildID, err)
		return
	}
	s.cache.Populate(guildID, invites)
	log.Printf("bootstrap: guild=%s con %d invites vivas", guildID, len(invites))
}

// HandleJoin: diff de snapshots + resync del cache + grant o deferral.
func (s *MemberService) HandleJoin(ctx context.Context, ev domain.MemberEvent) {
	unlock := s.lockGuild(ev.GuildID)
	defer unlock()

	old := s.cache.Snapshot(ev.GuildID)
	invites, fetchErr := s.guild.ListInvites(ctx, ev.GuildID)
	var fresh map[string]int
	if fetchErr != nil {
		// el snapshot previo queda en el cache; sin lista fresca el diff no
		// es confiable, así que se anulan los dos escaneos y decide el ledger
		log.Printf("join: listar invites guild=%s: %v", ev.GuildID, fetchErr)
		old, fresh = nil, nil
	} else {
		fresh = make(map[string]int, len(invites))
		for _, in := range invites {
			fresh[in.Code] = in.Uses
		}
	}

	code := s.attr.Resolve(ctx, old, fresh)

	// resync incondicional: atribuya o no, el cache queda en el estado nuevo
	if fetchErr == nil {
		s.cache.Populate(ev.GuildID, invites)
	}

	if code == "" {
		// esperado para vanity URL o rejoin; no es error
		log.Printf("join: member=%s sin atribución", ev.MemberID)
		return
	}

	if err := s.outcomes.Record(ctx, storage.MemberAttribution{
		GuildID:      ev.GuildID,
		MemberID:     ev.MemberID,
		InviteCode:   code,
		AttributedAt: time.Now(),
	}); err != nil {
		log.Printf("join: persistir atribución member=%s: %v", ev.MemberID, err)
	}

	if ev.Pending {
		// screening activo: el grant espera al gate-clear, que leerá la
		// atribución recién persistida
		log.Printf("join: member=%s diferido por screening, code=%s", ev.MemberID, code)
		return
	}

	s.grantor.Grant(ctx, ev.GuildID, ev.MemberID, code)
}

// HandleGateClear: el member salió del screening. Se lee la atribución
// persistida del join; si no hay (p.ej. el bot se reinició en el medio) se
// re-deriva contra el ledger por member id / cadena de email.
func (s *MemberService) HandleGateClear(ctx context.Context, ev domain.MemberEvent) {
	unlock := s.lockGuild(ev.GuildID)
	defer unlock()

	out, err := s.outcomes.Lookup(ctx, ev.GuildID, ev.MemberID)
	if err == nil {
		s.grantor.Grant(ctx, ev.GuildID, ev.MemberID, out.InviteCode)
		return
	}
	if err != storage.ErrNotFound {
		log.Printf("gate-clear: lookup atribución member=%s: %v", ev.MemberID, err)
	}

	rec, err := s.ledger.LookupForMember(ctx, ev.MemberID)
	if err != nil {
		if err != storage.ErrNotFound {
			log.Printf("gate-clear: ledger member=%s: %v", ev.MemberID, err)
		}
		log.Printf("gate-clear: member=%s sin invite rastreable", ev.MemberID)
		return
	}
	s.grantor.Grant(ctx, ev.GuildID, ev.MemberID, rec.Code)
}

// HandleInviteCreated / HandleInviteDeleted mantienen el cache al día
// entre joins, sin pedir la lista entera.
func (s *MemberService) HandleInviteCreated(inv domain.Invite) {
	s.cache.ApplyCreated(inv.GuildID, inv.Code, inv.Uses)
}

func (s *MemberService) HandleInviteDeleted(guildID, code string) {
	s.cache.ApplyDeleted(guildID, code)
}
