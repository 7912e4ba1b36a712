// Package gazettecmder
package gazettecmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/amategeko/gazette/cmd/gazette/ask"
	configcmder "github.com/amategeko/gazette/cmd/gazette/config"
	historycmder "github.com/amategeko/gazette/cmd/gazette/history"
	ingestcmder "github.com/amategeko/gazette/cmd/gazette/ingest"
	initcmder "github.com/amategeko/gazette/cmd/gazette/init"
	servecmder "github.com/amategeko/gazette/cmd/gazette/serve"
	versioncmder "github.com/amategeko/gazette/cmd/version"
)

const gazetteLongDesc string = `Gazette answers questions about Rwandan law.

It retrieves relevant laws from a local document store and the official
gazette sources, then generates a short plain-language answer citing the
laws it used.

Common commands:
  gazette serve      Run the API server
  gazette ask        Ask a one-shot question
  gazette ingest     Ingest a text file into the document store
  gazette history    Show recorded question/answer exchanges
  gazette config     Manage persistent configuration`

const gazetteShortDesc string = "Gazette - Rwandan law question answering"

func NewGazetteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gazette",
		Short: gazetteShortDesc,
		Long:  gazetteLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing the .gazette/ config (default: cwd, then home)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
