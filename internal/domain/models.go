package domain

// Payloads del gateway ya tipados; nada de map[string]any río abajo.

type Invite struct {
	GuildID string
	Code    string
	Uses    int
}

type MemberEvent struct {
	GuildID  string
	MemberID string
	Pending  bool // gate de screening activo
}

// Role: Rank es la "position" de Discord (más alto = más poder).
type Role struct {
	ID   string
	Rank int
}
