package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	pq "github.com/lib/pq"
)

var ErrNotFound = errors.New("not found")

type InviteRepo struct{ db *sql.DB }

func NewInviteRepo(db *sql.DB) *InviteRepo { return &InviteRepo{db: db} }

const inviteCols = `invite_code, role_id, email, status, created_at, expires_at, used_at, member_id`

func scanInvite(row *sql.Row) (InviteRecord, error) {
	var rec InviteRecord
	err := row.Scan(&rec.Code, &rec.RoleID, &rec.Email, &rec.Status,
		&rec.CreatedAt, &rec.ExpiresAt, &rec.UsedAt, &rec.MemberID)
	if err == sql.ErrNoRows {
		return InviteRecord{}, ErrNotFound
	}
	return rec, err
}

// Create inserta un registro nuevo en pending. El invariante "un solo pending
// por email" lo sostiene el emisor con el ciclo expirar-y-regenerar.
func (r *InviteRepo) Create(ctx context.Context, rec InviteRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO invites (invite_code, role_id, email, status, created_at, expires_at)
VALUES ($1,$2,$3,'pending',$4,$5)
`, rec.Code, rec.RoleID, rec.Email, rec.CreatedAt, rec.ExpiresAt)
	return err
}

func (r *InviteRepo) LookupPendingByCode(ctx context.Context, code string) (InviteRecord, error) {
	return scanInvite(r.db.QueryRowContext(ctx, `
SELECT `+inviteCols+`
  FROM invites
 WHERE invite_code = $1 AND status = 'pending'
`, code))
}

func (r *InviteRepo) LookupMostRecentPending(ctx context.Context) (InviteRecord, error) {
	return scanInvite(r.db.QueryRowContext(ctx, `
SELECT `+inviteCols+`
  FROM invites
 WHERE status = 'pending'
 ORDER BY created_at DESC
 LIMIT 1
`))
}

func (r *InviteRepo) LookupPendingByEmail(ctx context.Context, email string) (InviteRecord, error) {
	return scanInvite(r.db.QueryRowContext(ctx, `
SELECT `+inviteCols+`
  FROM invites
 WHERE email = $1 AND status = 'pending'
 ORDER BY created_at DESC
 LIMIT 1
`, email))
}

// LookupForMember: registro más reciente que matchee el member id directo, o
// que comparta email (cadena pending/used) con algún registro ya atado al member.
func (r *InviteRepo) LookupForMember(ctx context.Context, memberID string) (InviteRecord, error) {
	return scanInvite(r.db.QueryRowContext(ctx, `
SELECT `+inviteCols+`
  FROM invites
 WHERE member_id = $1
    OR ( status = ANY($2)
         AND email IN (SELECT email FROM invites WHERE member_id = $1) )
 ORDER BY created_at DESC
 LIMIT 1
`, memberID, pq.Array([]string{StatusPending, StatusUsed})))
}

func (r *InviteRepo) ListPending(ctx context.Context, limit int) ([]InviteRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+inviteCols+`
  FROM invites
 WHERE status = 'pending'
 ORDER BY created_at DESC
 LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InviteRecord
	for rows.Next() {
		var rec InviteRecord
		if err := rows.Scan(&rec.Code, &rec.RoleID, &rec.Email, &rec.Status,
			&rec.CreatedAt, &rec.ExpiresAt, &rec.UsedAt, &rec.MemberID); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkUsed: pending -> used, estampando used_at/member_id. El guard por status
// en el WHERE hace que un intento stale/duplicado sea no-op (devuelve false).
func (r *InviteRepo) MarkUsed(ctx context.Context, code, memberID string, usedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE invites
   SET status = 'used', used_at = $2, member_id = $3
 WHERE invite_code = $1 AND status = 'pending'
`, code, usedAt, memberID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// MarkExpired: pending -> expired; terminal.
func (r *InviteRepo) MarkExpired(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE invites
   SET status = 'expired'
 WHERE invite_code = $1 AND status = 'pending'
`, code)
	return err
}
