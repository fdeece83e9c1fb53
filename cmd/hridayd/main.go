// Command hridayd runs the hriday daemon standalone: it owns the session
// store, the acquisition orchestrator, the local HTTP API, and the camera
// hotplug monitor until it receives a termination signal.
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/daemonrun"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("HRIDAY_CONFIG")
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		log.Fatalf("hridayd: %v", err)
	}
}
