// seed provisions organizations from a JSON file. Logins only succeed for
// tenants that map to a provisioned organization, so this runs before the
// gateway serves its first login. Idempotent: known external refs are skipped.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"auth-gateway/internal/config"
	"auth-gateway/internal/db"
	orgdomain "auth-gateway/internal/organization/domain"
	orgrepo "auth-gateway/internal/organization/repository"
)

type seedOrg struct {
	// ExternalRef is the provider-side tenant identifier.
	ExternalRef string `json:"external_ref"`
	Name        string `json:"name"`
}

func main() {
	file := flag.String("file", "organizations.json", "Path to the organizations JSON file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("seed: read %s: %v", *file, err)
	}
	var orgs []seedOrg
	if err := json.Unmarshal(raw, &orgs); err != nil {
		log.Fatalf("seed: parse %s: %v", *file, err)
	}
	if len(orgs) == 0 {
		log.Fatalf("seed: %s contains no organizations", *file)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	repo := orgrepo.NewPostgresRepository(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var created, skipped int
	for _, o := range orgs {
		existing, err := repo.GetByExternalRef(ctx, o.ExternalRef)
		if err != nil {
			log.Fatalf("seed: lookup %q: %v", o.ExternalRef, err)
		}
		if existing != nil {
			skipped++
			continue
		}
		org := &orgdomain.Org{
			ID:          uuid.New().String(),
			ExternalRef: o.ExternalRef,
			Name:        o.Name,
			CreatedAt:   time.Now().UTC(),
		}
		if err := org.Validate(); err != nil {
			log.Fatalf("seed: organization %q: %v", o.ExternalRef, err)
		}
		if err := repo.Create(ctx, org); err != nil {
			log.Fatalf("seed: create %q: %v", o.ExternalRef, err)
		}
		created++
	}
	log.Printf("seed: %d organizations created, %d already present", created, skipped)
}
