package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashmap-kz/pgcatalog/catalog"
	"github.com/hashmap-kz/pgcatalog/internal/catalogmetrics"
)

func main() {
	catalog.InstallExitHook(catalog.NopLogger())
	catalogmetrics.InitPromMetrics(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
