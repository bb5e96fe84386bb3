package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// Launch point. Parses the command line and config, and runs the computation.
func main() {
	if err := BuildCLI().Execute(); err != nil {
		log.Error().Err(err).Msg("lp-computer failed")
		os.Exit(1)
	}
}
