package config

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

func InitDatabase(cfg *AppConfig) *entsql.Driver {
	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBName, cfg.DBPassword, cfg.DBSSLMode)

	drv, err := entsql.Open(dialect.Postgres, dsn)
	if err != nil {
		log.Fatalf("failed opening connection to postgres: %v", err)
	}

	if err := drv.DB().PingContext(context.Background()); err != nil {
		log.Fatalf("failed pinging postgres: %v", err)
	}

	if cfg.DBMigrate {
		if err := Migrate(context.Background(), drv); err != nil {
			log.Fatalf("failed creating schema resources: %v", err)
		}
		fmt.Println("Database schema migrated successfully")
	} else {
		fmt.Println("Database migration skipped (DB_MIGRATE=false)")
	}

	fmt.Println("Database connected successfully")
	return drv
}

// Migrate applies the embedded schema. Every statement in it is idempotent.
func Migrate(ctx context.Context, drv *entsql.Driver) error {
	if _, err := drv.DB().ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
