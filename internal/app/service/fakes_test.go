package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jose-valero/xcg-invite-bot/internal/domain"
	"github.com/jose-valero/xcg-invite-bot/internal/infra/storage"
)

// fakeLedger replica en memoria los guards que el repo real aplica en SQL
// (markUsed/markExpired solo sobre pending, lookups filtrados por status).
type fakeLedger struct {
	mu      sync.Mutex
	records map[string]*storage.InviteRecord
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: map[string]*storage.InviteRecord{}}
}

func (f *fakeLedger) seed(rec storage.InviteRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := rec
	f.records[rec.Code] = &cp
}

func (f *fakeLedger) get(code string) storage.InviteRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[code]; ok {
		return *rec
	}
	return storage.InviteRecord{}
}

func (f *fakeLedger) Create(_ context.Context, rec storage.InviteRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[rec.Code]; ok {
		return errors.New("duplicate invite_code")
	}
	cp := rec
	f.records[rec.Code] = &cp
	return nil
}

func (f *fakeLedger) LookupPendingByCode(_ context.Context, code string) (storage.InviteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[code]; ok && rec.Status == storage.StatusPending {
		return *rec, nil
	}
	return storage.InviteRecord{}, storage.ErrNotFound
}

func (f *fakeLedger) LookupMostRecentPending(_ context.Context) (storage.InviteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *storage.InviteRecord
	for _, rec := range f.records {
		if rec.Status != storage.StatusPending {
			continue
		}
		if best == nil || rec.CreatedAt.After(best.CreatedAt) {
			best = rec
		}
	}
	if best == nil {
		return storage.InviteRecord{}, storage.ErrNotFound
	}
	return *best, nil
}

func (f *fakeLedger) LookupPendingByEmail(_ context.Context, email string) (storage.InviteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *storage.InviteRecord
	for _, rec := range f.records {
		if rec.Status != storage.StatusPending || rec.Email != email {
			continue
		}
		if best == nil || rec.CreatedAt.After(best.CreatedAt) {
			best = rec
		}
	}
	if best == nil {
		return storage.InviteRecord{}, storage.ErrNotFound
	}
	return *best, nil
}

func (f *fakeLedger) LookupForMember(_ context.Context, memberID string) (storage.InviteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emails := map[string]struct{}{}
	for _, rec := range f.records {
		if rec.MemberID != nil && *rec.MemberID == memberID {
			emails[rec.Email] = struct{}{}
		}
	}
	var best *storage.InviteRecord
	for _, rec := range f.records {
		direct := rec.MemberID != nil && *rec.MemberID == memberID
		_, chained := emails[rec.Email]
		chained = chained && (rec.Status == storage.StatusPending || rec.Status == storage.StatusUsed)
		if !direct && !chained {
			continue
		}
		if best == nil || rec.CreatedAt.After(best.CreatedAt) {
			best = rec
		}
	}
	if best == nil {
		return storage.InviteRecord{}, storage.ErrNotFound
	}
	return *best, nil
}

func (f *fakeLedger) ListPending(_ context.Context, limit int) ([]storage.InviteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.InviteRecord
	for _, rec := range f.records {
		if rec.Status == storage.StatusPending && len(out) < limit {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeLedger) MarkUsed(_ context.Context, code, memberID string, usedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[code]
	if !ok || rec.Status != storage.StatusPending {
		return false, nil
	}
	rec.Status = storage.StatusUsed
	rec.UsedAt = &usedAt
	rec.MemberID = &memberID
	return true, nil
}

func (f *fakeLedger) MarkExpired(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[code]; ok && rec.Status == storage.StatusPending {
		rec.Status = storage.StatusExpired
	}
	return nil
}

type grantCall struct {
	GuildID, MemberID, RoleID string
}

type fakeGuild struct {
	mu       sync.Mutex
	invites  map[string][]domain.Invite
	listErr  error
	roles    []domain.Role
	botRank  int
	grantErr error
	granted  []grantCall
	nextCode string
	created  []domain.Invite
}

func newFakeGuild() *fakeGuild {
	return &fakeGuild{invites: map[string][]domain.Invite{}, botRank: 10}
}

func (g *fakeGuild) setInvites(guildID string, invs ...domain.Invite) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invites[guildID] = invs
}

func (g *fakeGuild) ListInvites(_ context.Context, guildID string) ([]domain.Invite, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]domain.Invite(nil), g.invites[guildID]...), nil
}

func (g *fakeGuild) CreateInvite(_ context.Context, _ string, _ time.Duration) (domain.Invite, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	inv := domain.Invite{Code: g.nextCode}
	g.created = append(g.created, inv)
	return inv, nil
}

func (g *fakeGuild) GuildRoles(_ context.Context, _ string) ([]domain.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Role(nil), g.roles...), nil
}

func (g *fakeGuild) BotHighestRank(_ context.Context, _ string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.botRank, nil
}

func (g *fakeGuild) GrantRole(_ context.Context, guildID, memberID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.grantErr != nil {
		return g.grantErr
	}
	g.granted = append(g.granted, grantCall{guildID, memberID, roleID})
	return nil
}

type fakeOutcomes struct {
	mu   sync.Mutex
	rows map[string]storage.MemberAttribution
}

func newFakeOutcomes() *fakeOutcomes {
	return &fakeOutcomes{rows: map[string]storage.MemberAttribution{}}
}

func (f *fakeOutcomes) Record(_ context.Context, a storage.MemberAttribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[a.GuildID+"/"+a.MemberID] = a
	return nil
}

func (f *fakeOutcomes) Lookup(_ context.Context, guildID, memberID string) (storage.MemberAttribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.rows[guildID+"/"+memberID]; ok {
		return a, nil
	}
	return storage.MemberAttribution{}, storage.ErrNotFound
}
