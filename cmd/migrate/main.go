// Package main applies database migrations embedded in the binary.
//
// Usage:
//
//	migrate [up|down|status|version]
//
// The target database comes from DATABASE_URL.
package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"kvtrade/migrations"
)

func main() {
	_ = godotenv.Load()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("required environment variable DATABASE_URL not set")
		os.Exit(1)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		fmt.Printf("failed to set dialect: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		err = goose.Version(db, ".")
	default:
		fmt.Printf("unknown command %q (expected up, down, status or version)\n", command)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("migration %s failed: %v\n", command, err)
		os.Exit(1)
	}
}
