// Package historycmder provides the history command for listing past
// exchanges.
package historycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/amategeko/gazette/pkg/config"
	"github.com/amategeko/gazette/pkg/history"
	"github.com/amategeko/gazette/pkg/utils"
)

var (
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const historyLongDesc string = `List past question/answer exchanges, newest first.

Requires a running Gazette API server with a history store configured.

Examples:
  gazette history
  gazette history --api-target http://localhost:8080`

const historyShortDesc string = "List past exchanges"

type historyCommander struct {
	apiTarget string
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Gazette API server URL")

	return cmd
}

type historyResponse struct {
	Count     int                `json:"count"`
	Exchanges []history.Exchange `json:"exchanges"`
}

func (c *historyCommander) run(ctx context.Context) error {
	historyURL, err := url.Parse(c.apiTarget)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	historyURL.Path = "/v1/history"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, historyURL.String(), nil)
	if err != nil {
		return fmt.Errorf("creating history request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Gazette API at %s: %w", c.apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var out historyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("failed to parse history response: %w", err)
	}

	if out.Count == 0 {
		fmt.Println("No exchanges recorded yet.")
		return nil
	}

	fmt.Println()
	for _, ex := range out.Exchanges {
		answer := utils.Truncate(strings.ReplaceAll(ex.Answer, "\n", " "), 117)
		fmt.Printf("  %s\n", questionStyle.Render(ex.Question))
		fmt.Printf("  %s\n", answerStyle.Render(answer))
		fmt.Printf("  %s\n\n", metaStyle.Render(fmt.Sprintf("%s · %s", ex.Source, ex.CreatedAt.Format("2006-01-02 15:04"))))
	}

	return nil
}
