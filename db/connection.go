package db

import (
	"database/sql"
	"log"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// BaseModel is the common mixin every persisted row embeds, carrying
// an auto-increment primary key and GORM's soft-delete column.
// ScanJob is the only model that currently needs it, but the mixin is
// kept separate from ScanJob itself so a second persisted entity never
// has to redeclare it.
type BaseModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DatabaseConnection wraps the GORM handle used by the job/queue façade.
// The core scan engine (pkg/graphqlaudit) never touches this package;
// it is only used by the external job runner described in spec.md §6.
type DatabaseConnection struct {
	db    *gorm.DB
	sqlDb *sql.DB
}

var (
	connectionOnce sync.Once
	connection     *DatabaseConnection
)

// Connection returns the lazily-initialized job-store connection. Unlike
// the teacher's eager package-level var, initialization is deferred so a
// plain CLI scan (with no job runner attached) never opens a database.
func Connection() *DatabaseConnection {
	connectionOnce.Do(func() {
		connection = initDB()
	})
	return connection
}

func initDB() *DatabaseConnection {
	viper.AutomaticEnv()

	dbType := viper.GetString("db.type")
	if dbType == "" {
		dbType = "sqlite"
	}

	var dialector gorm.Dialector
	switch dbType {
	case "sqlite":
		path := viper.GetString("db.sqlite_path")
		if path == "" {
			path = "gqlsentinel.db"
		}
		dialector = sqlite.Open(path)
	case "postgres":
		dsn := viper.GetString("db.postgres_dsn")
		if dsn == "" {
			log.Fatalf("No Postgres DSN provided")
		}
		dialector = postgres.Open(dsn)
	default:
		log.Fatalf("Unknown database type: %s", dbType)
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger})
	if err != nil {
		panic("failed to connect database")
	}

	if err := gdb.AutoMigrate(&ScanJob{}); err != nil {
		panic("failed to migrate database: " + err.Error())
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		panic("failed to get underlying sql.DB")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(80)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &DatabaseConnection{db: gdb, sqlDb: sqlDB}
}
