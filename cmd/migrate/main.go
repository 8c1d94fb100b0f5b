package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"cloth_pos_backend/pkg/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	utils.InitLogger()

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	sourceURL := "file://" + utils.Getenv("MIGRATIONS_PATH", "migrations")
	m, err := migrate.New(sourceURL, databaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize migrations")
	}
	defer m.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "drop":
		err = m.Drop()
	default:
		log.Fatal().Str("direction", direction).Msg("Unknown direction, use up, down or drop")
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Str("direction", direction).Msg("Migration failed")
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		log.Fatal().Err(verr).Msg("Failed to read migration version")
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Str("direction", direction).Msg("Migrations applied")
}

func databaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(utils.Getenv("DB_USER", "cloth_pos_user")),
		url.QueryEscape(utils.Getenv("DB_PASSWORD", "cloth_pos_password")),
		utils.Getenv("DB_HOST", "localhost"),
		utils.Getenv("DB_PORT", "5432"),
		utils.Getenv("DB_NAME", "cloth_pos_db"),
		utils.Getenv("DB_SSLMODE", "disable"),
	)
}
