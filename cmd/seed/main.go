// Command seed provisions accounts directly in the users table. Registration is not
// exposed over HTTP, so administrators and cohort members are created here.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
	"github.com/noah-isme/alumni-connect-api/pkg/config"
	"github.com/noah-isme/alumni-connect-api/pkg/database"
	"github.com/noah-isme/alumni-connect-api/pkg/logger"
)

type seedFlags struct {
	email      string
	password   string
	name       string
	role       string
	batch      string
	department string
}

func main() {
	var f seedFlags
	flag.StringVar(&f.email, "email", "", "account email (required)")
	flag.StringVar(&f.password, "password", "", "initial password (required)")
	flag.StringVar(&f.name, "name", "", "full name (required)")
	flag.StringVar(&f.role, "role", string(models.RoleStudent), "ADMIN, FACULTY, ALUMNI or STUDENT")
	flag.StringVar(&f.batch, "batch", "", "cohort year tag, e.g. E-2")
	flag.StringVar(&f.department, "department", "", "department code, e.g. CSE")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	user, err := f.user()
	if err != nil {
		logr.Fatal("invalid seed input", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repository.NewUserRepository(db).Create(ctx, user); err != nil {
		logr.Fatal("failed to create user", zap.Error(err))
	}
	logr.Info("user created", zap.String("id", user.ID), zap.String("email", user.Email), zap.String("role", string(user.Role)))
}

func (f seedFlags) user() (*models.User, error) {
	if f.email == "" || f.password == "" || f.name == "" {
		return nil, fmt.Errorf("email, password and name are required")
	}
	role := models.UserRole(strings.ToUpper(strings.TrimSpace(f.role)))
	switch role {
	case models.RoleAdmin, models.RoleFaculty, models.RoleAlumni, models.RoleStudent:
	default:
		return nil, fmt.Errorf("unknown role %q", f.role)
	}
	if role == models.RoleStudent && (f.batch == "" || f.department == "") {
		return nil, fmt.Errorf("students need a batch and a department")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Email:        f.email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(f.name),
		Role:         role,
		Active:       true,
	}
	if f.batch != "" {
		user.Batch = &f.batch
	}
	if f.department != "" {
		user.Department = &f.department
	}
	return user, nil
}
