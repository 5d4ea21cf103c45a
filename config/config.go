package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the database pointed at by the environment: MySQL when
// DB_DRIVER=mysql, otherwise a local SQLite file (the default keeps a single
// stall running without any server setup).
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DB_DRIVER")

	if driver == "mysql" {
		dsn := os.Getenv("DB_DSN")
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				os.Getenv("DB_USER"),
				os.Getenv("DB_PASSWORD"),
				getenvDefault("DB_HOST", "127.0.0.1"),
				getenvDefault("DB_PORT", "3306"),
				getenvDefault("DB_NAME", "comanda"),
			)
		}
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	}

	path := getenvDefault("DB_PATH", "comanda.db")
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
