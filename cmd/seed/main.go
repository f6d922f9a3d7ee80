package main

import (
	"context"
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskhub/internal/config"
	"taskhub/internal/db"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// Demo data for local development. Passwords here are obviously not secrets.
var seedUsers = []struct {
	Email    string
	Password string
	Todos    []string
}{
	{
		Email:    "alice@example.com",
		Password: "secret1",
		Todos:    []string{"buy milk", "return library books"},
	},
	{
		Email:    "bob@example.com",
		Password: "hunter22",
		Todos:    []string{"renew passport"},
	},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.UserToken{}, &model.Todo{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	todoRepo := repository.NewTodoRepository(gormDB)
	ctx := context.Background()

	created, skipped := 0, 0
	for _, entry := range seedUsers {
		user, err := seedUser(ctx, userRepo, entry.Email, entry.Password)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				log.Printf("User %s already exists, skipping", entry.Email)
				skipped++
				continue
			}
			log.Fatalf("Failed to seed user %s: %v", entry.Email, err)
		}
		created++

		for _, text := range entry.Todos {
			todo := &model.Todo{Text: text, OwnerID: user.ID}
			if err := todoRepo.Create(ctx, todo); err != nil {
				log.Fatalf("Failed to seed todo for %s: %v", entry.Email, err)
			}
		}
		log.Printf("Seeded %s with %d todos", entry.Email, len(entry.Todos))
	}

	log.Printf("Seed completed: %d users created, %d skipped", created, skipped)
}

func seedUser(ctx context.Context, repo repository.UserRepository, email, password string) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: email, PasswordHash: string(hashed)}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
