// Command salon runs the nail-salon site backend.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := Execute(); err != nil {
		log.Error().Err(err).Msg("salon failed")
		os.Exit(1)
	}
}
