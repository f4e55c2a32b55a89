package main

import (
	"github.com/peers-abm/peers"
	"github.com/peers-abm/peers/internal/design/lhd"
	"github.com/peers-abm/peers/internal/fit/truncated"
	"github.com/peers-abm/peers/internal/gsa/regression"
	"github.com/peers-abm/peers/internal/sim"
)

const description = "Tools for the Peers agent-based model of peer production. " +
	"Pass --help after a command name for its own options."

var registry = peers.MustRegistry(
	peers.Entry{
		Name:        "sim",
		Description: "Simulate the Peers agent-based model of collaborative editing, printing one line per edit",
		New:         func() peers.Command { return sim.NewCommand() },
	},
	peers.Entry{
		Name:        "lhd",
		Description: "Generate Latin hypercube designs of experiments, optionally keeping the maximin design",
		New:         func() peers.Command { return lhd.NewCommand() },
	},
	peers.Entry{
		Name:        "regression",
		Description: "Compute sensitivity indices as standardized linear regression coefficients",
		New:         func() peers.Command { return regression.NewCommand() },
	},
	peers.Entry{
		Name:        "truncated",
		Description: "Fit a mixture of truncated normal distributions to data using EM, with bootstrap confidence intervals",
		New:         func() peers.Command { return truncated.NewCommand() },
	},
)
