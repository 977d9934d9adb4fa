package main

import (
	"context"
	"log"

	"github.com/lostify/lostify/internal/server"
	"github.com/lostify/lostify/internal/server/config"
	_ "go.uber.org/automaxprocs"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
