package main

import (
	"os"

	"github.com/rs/zerolog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Error().Err(err).Msg("heycoachctl failed")
		os.Exit(1)
	}
}
