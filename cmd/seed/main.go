// Command seed provisions the demo and admin accounts used for local
// development. It is idempotent: accounts that already exist are left
// untouched.
package main

import (
	"log"
	"os"

	"cleanbage/internal/config"
	"cleanbage/internal/models"
	"cleanbage/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

type seedAccount struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Society  string
	Role     string
}

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer closeDB()

	accounts := []seedAccount{
		{
			Name:     "Demo User",
			Email:    config.GetEnv("DEMO_USER_EMAIL", "user@demo.com"),
			Password: config.GetEnv("DEMO_USER_PASSWORD", "demo1234"),
			Phone:    "+1234567890",
			Society:  "Green Valley Society",
			Role:     models.RoleUser,
		},
		{
			Name:     "Demo Collector",
			Email:    config.GetEnv("DEMO_COLLECTOR_EMAIL", "collector@demo.com"),
			Password: config.GetEnv("DEMO_COLLECTOR_PASSWORD", "demo1234"),
			Phone:    "+1234567891",
			Society:  "Green Valley Society",
			Role:     models.RoleCollector,
		},
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		accounts = append(accounts, seedAccount{
			Name:     "Administrator",
			Email:    adminEmail,
			Password: adminPassword,
			Role:     models.RoleAdmin,
		})
	} else {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin account")
	}

	for _, acc := range accounts {
		seed(acc)
	}
}

func seed(acc seedAccount) {
	var existing models.User
	if err := repositories.DB.Where("email = ?", acc.Email).First(&existing).Error; err == nil {
		log.Printf("Account %s already exists, skipping", acc.Email)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	user := models.User{
		Name:     acc.Name,
		Email:    acc.Email,
		Password: string(hashed),
		Phone:    acc.Phone,
		Society:  acc.Society,
		Role:     acc.Role,
	}
	if err := repositories.DB.Create(&user).Error; err != nil {
		log.Fatal("Failed to create account:", err)
	}

	log.Printf("Created %s account %s (%s)", acc.Role, acc.Email, user.ID)
}

func closeDB() {
	if repositories.DB != nil {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if repositories.CacheService != nil {
		_ = repositories.CacheService.Close()
	}
}
