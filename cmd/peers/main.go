// Command peers runs the tools of the Peers model: the simulator, design of
// experiments, sensitivity analysis and distribution fitting.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/peers-abm/peers"
)

func main() {
	cfg, err := peers.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	d := peers.New("peers", description, registry, cfg)
	os.Exit(d.Main(context.Background(), os.Args[1:]))
}
