package storage

import (
	"context"
	"database/sql"
)

type AttributionRepo struct{ db *sql.DB }

func NewAttributionRepo(db *sql.DB) *AttributionRepo { return &AttributionRepo{db: db} }

// Record: upsert por (guild, member). Se escribe una sola vez en el join,
// también cuando el member quedó en screening.
func (r *AttributionRepo) Record(ctx context.Context, a MemberAttribution) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO member_attributions (guild_id, member_id, invite_code, attributed_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (guild_id, member_id) DO UPDATE SET
  invite_code   = EXCLUDED.invite_code,
  attributed_at = EXCLUDED.attributed_at
`, a.GuildID, a.MemberID, a.InviteCode, a.AttributedAt)
	return err
}

func (r *AttributionRepo) Lookup(ctx context.Context, guildID, memberID string) (MemberAttribution, error) {
	var a MemberAttribution
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, member_id, invite_code, attributed_at
  FROM member_attributions
 WHERE guild_id = $1 AND member_id = $2
`, guildID, memberID).Scan(&a.GuildID, &a.MemberID, &a.InviteCode, &a.AttributedAt)
	if err == sql.ErrNoRows {
		return MemberAttribution{}, ErrNotFound
	}
	return a, err
}
