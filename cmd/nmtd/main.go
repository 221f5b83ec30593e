package main

import (
	"os"

	"github.com/google/gops/agent"
	"github.com/joho/godotenv"

	"github.com/nmt-project/nmt/internal/config"
	"github.com/nmt-project/nmt/pkg/log"
)

func main() {
	cliInit()

	log.SetLevel(flagLogLevel)
	log.SetLogDateTime(flagLogDateTime)

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("parsing '.env' file failed: %s", err.Error())
	}

	keys := config.Default()
	if flagConfigFile != "" {
		loaded, err := config.Load(flagConfigFile)
		if err != nil {
			log.Fatalf("loading config failed: %s", err.Error())
		}
		keys = loaded
	}
	if flagDev {
		keys.Detailed = false
		keys.RequireAuth = false
	}

	jwtSecret := os.Getenv("NMT_JWT_SECRET")
	if keys.RequireAuth && jwtSecret == "" {
		log.Fatalf("require_auth is set but NMT_JWT_SECRET is empty")
	}

	srv := newServer(keys, jwtSecret)

	if !flagServer {
		return
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %s", err.Error())
	}
}
