package main

import (
	"context"
	"time"

	"github.com/niksmo/cardfinder/config"
	"github.com/niksmo/cardfinder/internal/app"
	"github.com/niksmo/cardfinder/pkg/sigctx"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext(context.Background())
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	cardfinder := app.New(sigCtx, cfg)

	cardfinder.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	cardfinder.Close(ctx)
}
