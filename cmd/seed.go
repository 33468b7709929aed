/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/carbontrace/apiserver/config"
	"github.com/carbontrace/apiserver/internal/db"
	"github.com/carbontrace/apiserver/internal/store"
	"github.com/carbontrace/apiserver/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// seedFactor is one demo emission category with its per-unit factor.
type seedFactor struct {
	category   string
	unit       string
	co2PerUnit float64
	baseAmount float64
}

var seedFactors = []seedFactor{
	{category: "electricity", unit: "kWh", co2PerUnit: 0.5, baseAmount: 120},
	{category: "natural_gas", unit: "m3", co2PerUnit: 2.1, baseAmount: 35},
	{category: "water", unit: "m3", co2PerUnit: 0.344, baseAmount: 20},
	{category: "waste", unit: "kg", co2PerUnit: 0.5, baseAmount: 60},
	{category: "transportation", unit: "km", co2PerUnit: 0.2, baseAmount: 250},
}

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo data for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		ctx := cmd.Context()
		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
		defer func() {
			_ = dbConn.Close()
		}()

		return seed(ctx, dbConn)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seed(ctx context.Context, dbConn *sql.DB) error {
	companyRepo := store.NewCompanyRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)
	supplierRepo := store.NewSupplierRepository(dbConn)
	materialRepo := store.NewMaterialRepository(dbConn)
	emissionRepo := store.NewEmissionRepository(dbConn)

	company, err := companyRepo.Create(ctx, types.Company{
		Name:     "Acme Manufacturing",
		Industry: "manufacturing",
		Location: "Rotterdam",
		Size:     "medium",
	})
	if err != nil {
		return fmt.Errorf("seed company failed: %w", err)
	}

	admin, err := seedUser(ctx, userRepo, "admin", "admin@example.com", types.RoleAdmin, &company.ID)
	if err != nil {
		return err
	}
	if _, err := seedUser(ctx, userRepo, "demo", "demo@example.com", types.RoleUser, &company.ID); err != nil {
		return err
	}

	supplierNames := []string{"Steelworks BV", "GreenPack Logistics", "Nordic Components"}
	for _, name := range supplierNames {
		if _, err := supplierRepo.Create(ctx, types.Supplier{
			Name:      name,
			CompanyID: &company.ID,
		}); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("seed supplier %q failed: %w", name, err)
		}
	}

	for _, factor := range seedFactors {
		if _, err := materialRepo.Create(ctx, types.Material{
			Name:           factor.category,
			Category:       factor.category,
			EmissionFactor: factor.co2PerUnit,
			EmissionUnit:   factor.unit,
		}); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("seed material %q failed: %w", factor.category, err)
		}
	}

	// Thirty days of demo activity, deterministic across runs.
	rng := rand.New(rand.NewSource(42))
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for daysAgo := 30; daysAgo >= 1; daysAgo-- {
		day := today.AddDate(0, 0, -daysAgo)
		for _, factor := range seedFactors {
			amount := factor.baseAmount * (0.8 + 0.4*rng.Float64())
			if _, err := emissionRepo.Create(ctx, types.EmissionRecord{
				UserID:     admin.ID,
				CompanyID:  &company.ID,
				Category:   factor.category,
				Amount:     amount,
				Unit:       factor.unit,
				CO2PerUnit: factor.co2PerUnit,
				OccurredAt: day,
			}); err != nil {
				return fmt.Errorf("seed emission record failed: %w", err)
			}
		}
	}

	return nil
}

func seedUser(ctx context.Context, repo *store.UserRepository, username, email, role string, companyID *int) (types.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(username+"-password"), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	user, err := repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		Role:         role,
		CompanyID:    companyID,
		PasswordHash: string(hashed),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return repo.GetByUsername(ctx, username)
	}
	if err != nil {
		return types.User{}, fmt.Errorf("seed user %q failed: %w", username, err)
	}
	return user, nil
}
