package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	discordrouter "github.com/jose-valero/xcg-invite-bot/internal/adapters/discord"
	"github.com/jose-valero/xcg-invite-bot/internal/adapters/httpinvite"
	"github.com/jose-valero/xcg-invite-bot/internal/adapters/mailer"
	"github.com/jose-valero/xcg-invite-bot/internal/app/service"
	"github.com/jose-valero/xcg-invite-bot/internal/infra/config"
	"github.com/jose-valero/xcg-invite-bot/internal/infra/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	// DB
	db, err := storage.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatal("migrate:", err)
	}
	log.Println("✅ DB lista y migrada")

	// Repos
	ledger := storage.NewInviteRepo(db)
	outcomes := storage.NewAttributionRepo(db)

	// Discord session
	auth := cfg.DiscordToken
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(auth)), "bot ") {
		auth = "Bot " + strings.TrimSpace(auth)
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildInvites
	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	log.Printf("✅ Conectado como %s (%s)", s.State.User.Username, s.State.User.ID)

	// Services
	gw := discordrouter.NewGateway(s)
	cache := service.NewUsageCache()
	attr := service.NewAttributor(ledger)
	grantor := service.NewGrantor(gw, ledger)
	members := service.NewMemberService(gw, cache, attr, grantor, outcomes, ledger)

	var mail service.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}
	issues := service.NewIssueService(gw, ledger, mail, cfg.InviteChannelID, cfg.InviteTTL)

	// Snapshot inicial de invites vivas
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		members.Bootstrap(ctx, cfg.DiscordGuild)
		cancel()
	}

	// Emisión por HTTP (backoffice)
	web := httpinvite.New(cfg.IssueSecret, issues)
	go web.Start(cfg.HTTPAddr)

	// Router
	r := discordrouter.NewRouter(s, cfg.DiscordGuild, members, issues, cfg.AdminRoleIDs)
	if err := r.Register(); err != nil {
		log.Fatalf("registrando comandos: %v", err)
	}
	r.Handlers()
	log.Printf("✅ comandos registrados en guild %s", cfg.DiscordGuild)

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop
}
