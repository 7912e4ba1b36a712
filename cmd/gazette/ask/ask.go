// Package askcmder provides the ask command for querying a running gazette
// API server.
package askcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/amategeko/gazette/pkg/answer"
	"github.com/amategeko/gazette/pkg/cliui"
	"github.com/amategeko/gazette/pkg/config"
	"github.com/amategeko/gazette/pkg/utils"
)

var (
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type askCommander struct {
	question string
	mode     string
	sources  bool

	apiTarget string
}

const askLongDesc string = `Ask a question about Rwandan law via the Gazette API.

The answer is generated from laws stored in the vector store and, in hybrid
mode, from laws harvested live from official publication pages.

Modes:
  hybrid  use both the stored laws and live harvesting (default)
  live    use only the stored laws, without harvesting
  dbonly  use the stored laws, falling back to a web lookup when empty

Example:
  gazette ask "What is the legal age of majority in Rwanda?"
  gazette ask --mode dbonly "What does the law say about land leases?"
  gazette ask --sources "How are cooperatives registered?"`

const askShortDesc string = "Ask a question about Rwandan law"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ExactArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.question = args[0]
			return cmder.run(cmd.Context())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.mode, "mode", "m", string(answer.ModeHybrid), "Answer mode (hybrid, live, dbonly)")
	cmd.Flags().BoolVarP(&cmder.sources, "sources", "s", false, "Show the context documents behind the answer")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Gazette API server URL")

	return cmd
}

func (c *askCommander) run(ctx context.Context) error {
	result, err := AskAPI(ctx, c.apiTarget, c.question, c.mode)
	if err != nil {
		return err
	}

	rendered, err := cliui.RenderMarkdown(result.Answer)
	if err != nil {
		rendered = result.Answer
	}
	fmt.Println(rendered)

	fmt.Printf("%s\n", sourceStyle.Render(fmt.Sprintf("source: %s  mode: %s", result.Source, result.Mode)))

	if c.sources && len(result.Documents) > 0 {
		fmt.Println()
		for _, doc := range result.Documents {
			title := doc.Title
			if title == "" {
				title = "(untitled)"
			}
			preview := utils.Truncate(strings.ReplaceAll(doc.Content, "\n", " "), 97)
			fmt.Printf("  %s %s\n", titleStyle.Render(title), scoreStyle.Render(fmt.Sprintf("(%s, score %.4f)", doc.Kind, doc.Score)))
			fmt.Printf("    %s\n", preview)
		}
	}

	return nil
}

// AskAPI calls the gazette ask API and returns the parsed result.
func AskAPI(ctx context.Context, apiTarget, question, mode string) (*answer.Result, error) {
	askURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	askURL.Path = "/v1/ask"

	payload, err := json.Marshal(map[string]string{
		"question": question,
		"mode":     mode,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, askURL.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Gazette API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ask request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var result answer.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ask response: %w", err)
	}

	return &result, nil
}
