// Package configcmder provides the config command for managing persistent
// gazette configuration stored in the .gazette/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent gazette configuration.

Configuration is stored as config.toml in the .gazette/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen, client.api_target,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  generation.provider, generation.target, generation.model, generation.max_tokens,
  history.provider, history.target,
  events.provider, events.brokers, events.topic,
  harvest.urls, harvest.concurrency,
  websearch.endpoint,
  answer.topk, answer.rank_limit, answer.unified_ranking,
  answer.skip_harvest_when_satisfied,
  storage.sqlite_path

Use subcommands to get, set, or list configuration values:
  gazette config set <key> <value>    Set a configuration value
  gazette config get <key>            Get a configuration value
  gazette config list                 List all configuration values

Examples:
  gazette config set embedding.model paraphrase-multilingual
  gazette config set vector_store.provider qdrant
  gazette config get generation.model
  gazette config list`

const configShortDesc string = "Manage persistent gazette configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
