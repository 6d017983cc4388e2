// seed creates a development user pool with an app client and a confirmed
// user so the emulator is usable immediately after first boot.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/cognito"
	"cognito-emulator/internal/config"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/storage"
)

const (
	devPoolID    = "local_dev00001"
	devPoolName  = "dev"
	devClientID  = "devclientid000000000000000"
	devGroupName = "admins"
	devUsername  = "dev@example.com"
	devPassword  = "Devpassw0rd!"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	backend, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.StorageBackend,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
	})
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer backend.Close()

	clk := clock.System{}
	svc, err := cognito.New(ctx, backend, clk)
	if err != nil {
		log.Fatalf("load pools: %v", err)
	}

	poolID := devPoolID
	if cfg.SeedPoolID != "" {
		poolID = cfg.SeedPoolID
	}
	clientID := devClientID
	if cfg.SeedClientID != "" {
		clientID = cfg.SeedClientID
	}

	st, err := svc.GetUserPool(ctx, poolID)
	if err == nil && st.GetUserByUsername(devUsername) != nil {
		log.Printf("Seed already applied (%s exists). Skipping.", devUsername)
		return
	}
	if err != nil {
		st, err = svc.CreateUserPool(ctx, domain.UserPool{
			ID:               poolID,
			Name:             devPoolName,
			MFAConfiguration: domain.MFAOff,
			Policy: domain.PasswordPolicy{
				MinimumLength:    8,
				RequireUppercase: true,
				RequireLowercase: true,
				RequireNumbers:   true,
			},
			AutoVerifiedAttributes: []string{domain.AttrEmail},
		})
		if err != nil {
			log.Fatalf("create pool: %v", err)
		}
	}

	if st.GetClient(clientID) == nil {
		if err := svc.RegisterClient(ctx, &domain.AppClient{
			ClientID:   clientID,
			UserPoolID: poolID,
			Name:       "dev-client",
			ExplicitAuthFlows: []string{
				domain.FlowUserPasswordAuth,
				domain.FlowAdminUserPasswordAuth,
				domain.FlowRefreshTokenAuth,
				domain.FlowUserSRPAuth,
			},
		}); err != nil {
			log.Fatalf("register client: %v", err)
		}
	}

	now := clk.Now()
	user := &domain.User{
		Username: devUsername,
		Attributes: domain.Attributes{
			{Name: domain.AttrSub, Value: uuid.NewString()},
			{Name: domain.AttrEmail, Value: devUsername},
			{Name: domain.AttrEmailVerified, Value: "true"},
		},
		Password:  devPassword,
		Status:    domain.UserStatusConfirmed,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.SaveUser(ctx, user); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	if st.GetGroup(devGroupName) == nil {
		if err := st.SaveGroup(ctx, &domain.Group{
			Name:        devGroupName,
			Description: "Development administrators",
		}); err != nil {
			log.Fatalf("create group: %v", err)
		}
	}
	if err := st.AddUserToGroup(ctx, devGroupName, devUsername); err != nil {
		log.Fatalf("add user to group: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Pool: %s  Client: %s\n", poolID, clientID)
	fmt.Printf("Dev login: %s / %s\n", devUsername, devPassword)
}
