// vecplot-fixed reads {"x": [...], "y": [...]} from stdin and shows y against
// x as a line chart. Axis labels and title are fixed; labels in the input are
// ignored.
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
	code := vecplot.NewCLI(vecplot.VariantFixed).Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
