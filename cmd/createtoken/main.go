package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sitewise/crewclock/web/middlewares"
)

func main() {
	_ = godotenv.Load()

	deviceID := "device-id"
	if len(os.Args) > 1 {
		deviceID = os.Args[1]
	}

	token, err := middlewares.CreateJWT(deviceID, 365*24*time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
