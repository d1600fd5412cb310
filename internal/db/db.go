package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/types"
	"github.com/bcqa/bcqa-backend/internal/utils"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens the database selected by DB_DRIVER: "postgres" for a shared
// deployment, anything else falls back to a local sqlite file.
func New(baseLog *logger.Logger) (*Service, error) {
	serviceLog := baseLog.With("service", "DBService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	driver := utils.GetEnv("DB_DRIVER", "sqlite", baseLog)
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		host := utils.GetEnv("POSTGRES_HOST", "localhost", baseLog)
		port := utils.GetEnv("POSTGRES_PORT", "5432", baseLog)
		user := utils.GetEnv("POSTGRES_USER", "postgres", baseLog)
		password := utils.GetEnv("POSTGRES_PASSWORD", "", baseLog)
		name := utils.GetEnv("POSTGRES_NAME", "bcqa", baseLog)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	default:
		path := utils.GetEnv("DB_PATH", "bcqa.db", baseLog)
		db, err = gorm.Open(sqlite.Open(path), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database (%s): %w", driver, err)
	}

	serviceLog.Info("Database connected", "driver", driver)
	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	return s.db.AutoMigrate(
		&types.ChecklistRun{},
		&types.ChecklistAnswer{},
		&types.ChecklistPhoto{},
	)
}
