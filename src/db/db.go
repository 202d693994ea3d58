package db

import (
	"log"

	"github.com/Ghodjeezreal/paygate/src/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the shared postgres handle. The handle is owned by main and
// passed down into the ledger, engine and handlers; nothing reads it from
// package state.
func Connect() (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(config.GetDSN()))
	if err != nil {
		log.Printf("Error connecting to database: %s\n", err.Error())
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return gdb, nil
}
