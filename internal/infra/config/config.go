package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL     string
	DiscordToken    string
	DiscordGuild    string
	InviteChannelID string // canal donde se crean las invites
	InviteTTL       time.Duration
	HTTPAddr        string // opcional, default :8080
	IssueSecret     string
	AdminRoleIDs    []string

	// SMTP opcional; sin host se loguea el link en vez de mandarlo
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

func Load() Config {
	get := func(k string, req bool) string {
		v := os.Getenv(k)
		if v == "" && req {
			log.Fatalf("faltante env %s", k)
		}
		return v
	}

	cfg := Config{
		DatabaseURL:     get("DATABASE_URL", true),
		DiscordToken:    get("DISCORD_BOT_TOKEN", true),
		DiscordGuild:    get("DISCORD_GUILD_ID", true),
		InviteChannelID: get("INVITE_CHANNEL_ID", true),
		HTTPAddr:        get("HTTP_ADDR", false),
		IssueSecret:     get("ISSUE_SECRET", true),
		SMTPHost:        get("SMTP_HOST", false),
		SMTPUser:        get("SMTP_USER", false),
		SMTPPass:        get("SMTP_PASS", false),
		SMTPFrom:        get("SMTP_FROM", false),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	ttlSecs := 86400
	if v := get("INVITE_TTL_SECONDS", false); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("INVITE_TTL_SECONDS inválido: %q", v)
		}
		ttlSecs = n
	}
	cfg.InviteTTL = time.Duration(ttlSecs) * time.Second

	if v := get("SMTP_PORT", false); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("SMTP_PORT inválido: %q", v)
		}
		cfg.SMTPPort = n
	} else {
		cfg.SMTPPort = 587
	}

	if v := get("ADMIN_ROLE_IDS", false); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.AdminRoleIDs = append(cfg.AdminRoleIDs, id)
			}
		}
	}

	return cfg
}
