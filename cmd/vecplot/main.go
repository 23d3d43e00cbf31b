// vecplot reads {"x": [...], "y": [...], "x_label": "...", "y_label": "..."}
// from stdin and shows y against x as a line chart titled "<y_label> vs.
// <x_label>".
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cactusdynamics/vecplot"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := vecplot.NewCLI(vecplot.VariantLabeled).Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
