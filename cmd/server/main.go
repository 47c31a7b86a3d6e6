package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sitewise/crewclock/core"
	"github.com/sitewise/crewclock/payroll"
	"github.com/sitewise/crewclock/quickbooks"
	"github.com/sitewise/crewclock/security"
	"github.com/sitewise/crewclock/web"
	"github.com/sitewise/crewclock/web/handlers"
)

func main() {
	// .env is for local development; deployed environments set real env vars
	_ = godotenv.Load()

	logger := core.GetLogger()

	dm, err := core.New(os.Getenv("DSN"), 10)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer dm.Close()

	vault, err := security.NewVaultFromHex(os.Getenv("VAULT_KEY"))
	if err != nil {
		logger.Fatalf("invalid VAULT_KEY: %v", err)
	}

	oauth := payroll.NewOAuthClient(payroll.OAuthConfig{
		ClientID:     os.Getenv("QBO_CLIENT_ID"),
		ClientSecret: os.Getenv("QBO_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("QBO_REDIRECT_URI"),
	})
	connections := payroll.NewConnectionManager(vault, oauth)

	environment := os.Getenv("QBO_ENVIRONMENT")
	if environment == "" {
		environment = quickbooks.EnvironmentSandbox
	}

	h := &handlers.Handler{
		Dm:          dm,
		Connections: connections,
		Engine:      payroll.NewEngine(connections, logger),
		Logger:      logger,
		Environment: environment,
		StateSecret: []byte(os.Getenv("STATE_SECRET")),
	}

	r := web.NewRouter(h, []byte(os.Getenv("API_TOKEN_SECRET")))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
