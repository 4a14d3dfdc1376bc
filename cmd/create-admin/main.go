package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"renthub/backend/internal/auth"
	"renthub/backend/internal/config"
	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
	"renthub/backend/internal/storage/memory"
	sqlstore "renthub/backend/internal/storage/sql"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: create-admin <email> <password> <username> [super|admin]")
		os.Exit(1)
	}

	email := os.Args[1]
	password := os.Args[2]
	username := os.Args[3]
	roleStr := "admin"
	if len(os.Args) >= 5 {
		roleStr = os.Args[4]
	}

	var role domain.UserRole
	if roleStr == "super" {
		role = domain.RoleSuper
	} else {
		role = domain.RoleAdmin
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 连接存储：配置了数据库时直接写库，否则只能写内存（仅用于演示）
	var store storage.Store
	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		db, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			fmt.Printf("Failed to connect database: %v\n", err)
			os.Exit(1)
		}
		if err := db.Migrate(); err != nil {
			fmt.Printf("Failed to migrate database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	} else {
		store = memory.NewStore()
	}

	// 验证邮箱
	if !auth.ValidateEmail(email) {
		fmt.Println("Invalid email format")
		os.Exit(1)
	}

	// 验证密码
	if err := auth.ValidatePassword(password); err != nil {
		fmt.Printf("Invalid password: %v\n", err)
		os.Exit(1)
	}

	// 哈希密码
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		fmt.Printf("Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	// 创建管理员用户
	now := time.Now()
	user := &domain.User{
		ID:              uuid.New().String(),
		Email:           email,
		Username:        username,
		PasswordHash:    hashedPassword,
		Role:            role,
		IsActive:        true,
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := store.CreateUser(user); err != nil {
		fmt.Printf("Failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Admin user created successfully!\n")
	fmt.Printf("  ID:       %s\n", user.ID)
	fmt.Printf("  Email:    %s\n", user.Email)
	fmt.Printf("  Username: %s\n", user.Username)
	fmt.Printf("  Role:     %s\n", user.Role)

	if cfg.Database.Type == "" {
		fmt.Println("\nNote: no database configured, this user exists only in memory.")
		fmt.Println("Set RENTHUB_DATABASE_TYPE and RENTHUB_DATABASE_DSN to write to a real database.")
	}
}
