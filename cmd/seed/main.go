package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/digitalguardian/backend/config"
	"github.com/digitalguardian/backend/internal/domain/entity"
	"github.com/digitalguardian/backend/pkg/helpers"
)

type seedUser struct {
	name   string
	email  string
	role   entity.Role
	avatar string
	points int
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	password := "guardian123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	users := []seedUser{
		{name: "Ada Guardian", email: "ada@example.com", role: entity.RoleGuardian, avatar: "avatar2", points: 250},
		{name: "Ben Shield", email: "ben@example.com", role: entity.RoleGuardian, avatar: "avatar5", points: 120},
		{name: "Cleo Sprout", email: "cleo@example.com", role: entity.RoleProtectee, avatar: "avatar10", points: 40},
	}

	for _, su := range users {
		var id string
		err := db.QueryRow(`
			INSERT INTO users (name, email, password_hash, role, avatar, points, level)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, su.name, su.email, hash, su.role, su.avatar, su.points, entity.LevelForPoints(su.points)).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", su.email, err)
		}
		fmt.Printf("seeded user: id=%s email=%s role=%s points=%d password=%s\n", id, su.email, su.role, su.points, password)
	}
}
