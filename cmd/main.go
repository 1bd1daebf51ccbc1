package main

import (
	"context"
	"log/slog"
	"os"

	"textdigest/internal/cli"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := cli.Execute(context.Background(), log); err != nil {
		log.Error("Command failed",
			"error", err)

		os.Exit(1)
	}
}
