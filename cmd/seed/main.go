package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"content-token-platform/internal/config"
	"content-token-platform/internal/domain/model"
	pg "content-token-platform/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	repo := pg.NewTokenPackageRepo(pool)

	// If packages already exist, do nothing
	existing, err := repo.ListActive(ctx)
	if err != nil {
		log.Fatalf("list packages: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d packages already present. No changes.\n", len(existing))
		for _, p := range existing {
			fmt.Printf("  - %s (tokens=%d, price=%d %s)\n", p.Name, p.Tokens, p.PriceAmount, p.PriceCurrency)
		}
		return
	}

	// Seed a small catalog for testing the purchase flow
	seed := []struct {
		ID     string
		Name   string
		Price  int64
		Tokens int64
	}{
		{"pkg-20", "Starter", 4_99, 20},
		{"pkg-100", "Plus", 19_99, 100},
		{"pkg-500", "Studio", 79_99, 500},
	}

	for _, s := range seed {
		p, err := model.NewTokenPackage(s.ID, s.Name, s.Price, "USD", s.Tokens)
		if err != nil {
			log.Fatalf("build package %q: %v", s.Name, err)
		}
		if err := repo.Save(ctx, p); err != nil {
			log.Fatalf("save package %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, tokens=%d, price=%d USD)\n", p.Name, p.ID, p.Tokens, p.PriceAmount)
	}

	fmt.Println("✅ Seeding complete.")
}
