package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"auth-gateway/internal/audit"
	auditproducer "auth-gateway/internal/audit/producer"
	auditrepo "auth-gateway/internal/audit/repository"
	authsvc "auth-gateway/internal/auth/service"
	"auth-gateway/internal/config"
	"auth-gateway/internal/db"
	flowrepo "auth-gateway/internal/flow/repository"
	orgrepo "auth-gateway/internal/organization/repository"
	personrepo "auth-gateway/internal/person/repository"
	personsvc "auth-gateway/internal/person/service"
	"auth-gateway/internal/provider"
	"auth-gateway/internal/security"
	"auth-gateway/internal/server"
	sessiondomain "auth-gateway/internal/session/domain"
	sessionrepo "auth-gateway/internal/session/repository"
	sessionsvc "auth-gateway/internal/session/service"
	"auth-gateway/internal/telemetry/otel"
)

// flowGCInterval is how often expired pending flows are purged. Only the
// Postgres flow store needs this; Redis expires keys natively.
const flowGCInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "auth-gateway", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	oidcClient, err := provider.NewOIDCClient(ctx, provider.OIDCConfig{
		Issuer:       cfg.OIDCIssuer,
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Scopes:       cfg.Scopes(),
	})
	if err != nil {
		log.Fatalf("provider: %v", err)
	}

	// Flow store: Redis when configured, otherwise Postgres with periodic GC.
	var flows flowrepo.Repository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		flows = flowrepo.NewRedisRepository(rdb)
	} else {
		flows = flowrepo.NewPostgresRepository(conn)
	}

	resolver := personsvc.NewResolver(
		orgrepo.NewPostgresRepository(conn),
		personrepo.NewPostgresRepository(conn),
	)

	// Sessions: delegated to a remote sink when configured, local otherwise.
	// The session middleware and logout need a local issuer; with a remote
	// sink those surfaces degrade to cookie clearing only.
	var (
		issuer    authsvc.Issuer
		revoker   authsvc.Revoker
		validator server.SessionValidator
	)
	if cfg.SessionSinkURL != "" {
		issuer = sessionsvc.NewSinkIssuer(cfg.SessionSinkURL, cfg.SessionSinkSecret)
		validator = noSessionValidator{}
	} else {
		local := sessionsvc.NewLocalIssuer(
			sessionrepo.NewPostgresRepository(conn),
			security.NewHasher(cfg.BcryptCost),
		)
		issuer = local
		revoker = local
		validator = local
	}

	kafkaProducer := auditproducer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuditKafkaTopic)
	defer kafkaProducer.Close()
	var fanout audit.Producer
	if kafkaProducer != nil {
		fanout = audit.MultiProducer(fanout, kafkaProducer)
	}
	if emitter := otel.NewAuditEmitter(providers.LoggerProvider); emitter != nil {
		fanout = audit.MultiProducer(fanout, emitter)
	}
	auditRepo := auditrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(auditRepo, audit.NewAsyncProducer(fanout))

	auth := authsvc.NewAuthService(flows, oidcClient, resolver, issuer, revoker, auditLogger, cfg.FlowTTL())

	handler := server.NewAuthHandler(auth, validator,
		personrepo.NewPostgresRepository(conn),
		orgrepo.NewPostgresRepository(conn),
		auditRepo,
		server.CookieConfig{
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure,
		}, conn)
	srv := server.New(cfg.HTTPAddr, server.NewRouter(handler))

	go purgeExpiredFlows(ctx, flows)

	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	// Let in-flight async audit emits drain before the exporters close.
	time.Sleep(audit.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("stopped")
}

func purgeExpiredFlows(ctx context.Context, flows flowrepo.Repository) {
	ticker := time.NewTicker(flowGCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := flows.PurgeExpired(ctx)
			if err != nil {
				log.Printf("flow gc: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("flow gc: purged %d expired flows", n)
			}
		}
	}
}

// noSessionValidator rejects every credential. Used when sessions live in a
// remote sink and the gateway cannot introspect them.
type noSessionValidator struct{}

func (noSessionValidator) Validate(context.Context, string) (*sessiondomain.Session, error) {
	return nil, sessionsvc.ErrInvalidCredential
}
