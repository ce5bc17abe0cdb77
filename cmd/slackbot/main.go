// Command slackbot runs the chat bot.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reginold/slack-bot-agentic/internal/version"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "slackbot",
	Short: "Chat bot that answers mentions with an LLM or a web search",
	Long: `slackbot listens for mentions on Slack (and optionally Discord and
Telegram), routes each query either to a hosted chat-completion model or to
a web search, and posts the answer back in the thread.

Configuration:
  --config flag, or $HOME/.slackbot/config.yaml when present.

Environment Variables:
  API_KEY             - completion provider API key (required)
  SEARCH_API_KEY      - SerpAPI key (SERPAPI_KEY is also accepted)
  SLACK_BOT_TOKEN     - Slack bot token (xoxb-...)
  SLACK_APP_TOKEN     - Slack app-level token for Socket Mode (xapp-...)
  DISCORD_BOT_TOKEN   - Discord bot token
  TELEGRAM_BOT_TOKEN  - Telegram bot token
  LOG_LEVEL           - debug, info, warn or error`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.slackbot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)

	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsCheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "slackbot", version.String())
	},
}
