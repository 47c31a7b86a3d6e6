package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/sitewise/crewclock/core"
	"github.com/sitewise/crewclock/infrastructure/devops"
	"github.com/sitewise/crewclock/payroll"
	"github.com/sitewise/crewclock/security"
	"gorm.io/gorm"
)

// SyncEvent optionally narrows the run to specific tenant schemas; with no
// list every tenant on the server is scanned.
type SyncEvent struct {
	Tenants *[]string `json:"tenants"`
}

func SyncShifts(ctx context.Context, cfg *devops.AppConfig, tenants *[]string) (map[string]payroll.Summary, error) {
	logger := core.GetLogger()

	dm, err := core.New(cfg.DSN, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	dm.LogLevel = core.LogLevelError
	defer dm.Close()

	vault, err := security.NewVaultFromHex(cfg.VaultKey)
	if err != nil {
		return nil, fmt.Errorf("invalid vault key: %w", err)
	}

	oauth := payroll.NewOAuthClient(payroll.OAuthConfig{
		ClientID:     cfg.QBO.ClientID,
		ClientSecret: cfg.QBO.ClientSecret,
		RedirectURI:  cfg.QBO.RedirectURI,
	})
	engine := payroll.NewEngine(payroll.NewConnectionManager(vault, oauth), logger)

	var targets []string
	if tenants == nil {
		targets, err = dm.GetAllTenants(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tenants: %w", err)
		}
	} else {
		targets = *tenants
	}

	results := make(map[string]payroll.Summary)
	for _, tenant := range targets {
		err := dm.Exec(ctx, tenant, func(db *gorm.DB) error {
			summary, err := engine.ProcessDueShifts(db)
			if err != nil {
				return err
			}
			results[tenant] = summary
			return nil
		})
		if err != nil {
			logger.WithFields(logrus.Fields{
				"module": "syncshifts",
				"tenant": tenant,
			}).Error("tenant scan failed: " + err.Error())
			continue
		}
	}

	return results, nil
}

func HandleRequest(ctx context.Context, event SyncEvent) (map[string]payroll.Summary, error) {
	cfg, err := devops.LoadAppConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return SyncShifts(ctx, cfg, event.Tenants)
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(HandleRequest)
		return
	}

	// local run against .env instead of SSM
	_ = godotenv.Load()
	cfg := &devops.AppConfig{
		DSN:      os.Getenv("DSN"),
		VaultKey: os.Getenv("VAULT_KEY"),
		QBO: devops.QBOConfig{
			ClientID:     os.Getenv("QBO_CLIENT_ID"),
			ClientSecret: os.Getenv("QBO_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("QBO_REDIRECT_URI"),
			Environment:  os.Getenv("QBO_ENVIRONMENT"),
		},
	}

	results, err := SyncShifts(context.Background(), cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	resJson, _ := json.MarshalIndent(results, "", "  ")
	fmt.Printf("%s\n", string(resJson))
}
