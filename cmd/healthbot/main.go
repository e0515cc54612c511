package main

import (
	"log"

	corecmd "github.com/m3rciful/healthbot/core/cmd"
	"github.com/m3rciful/healthbot/internal/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return newApp(cfg.(*config.Config), appDeps{})
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
