package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/reginold/slack-bot-agentic/internal/boterr"
	"github.com/reginold/slack-bot-agentic/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the models offered by the completion provider",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available model ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFromFlags()
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.validator.ModelList(cmd.Context(), false)
		if err != nil {
			return err
		}
		printModels(cmd.OutOrStdout(), list, a.cfg.Provider.DefaultModel)
		return nil
	},
}

var modelsCheckCmd = &cobra.Command{
	Use:   "check [model]",
	Short: "Check whether a model is available (default: the configured model)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFromFlags()
		if err != nil {
			return err
		}
		defer a.Close()

		name := a.cfg.Provider.DefaultModel
		if len(args) == 1 {
			name = args[0]
		}
		return checkModel(cmd, a.validator, name)
	},
}

func appFromFlags() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

func printModels(w io.Writer, list []string, defaultModel string) {
	for _, m := range list {
		marker := " "
		if m == defaultModel {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, m)
	}
	fmt.Fprintf(w, "\n%d models\n", len(list))
}

func checkModel(cmd *cobra.Command, v *models.Validator, name string) error {
	out := cmd.OutOrStdout()
	err := v.Validate(cmd.Context(), name, false)
	if err == nil {
		fmt.Fprintf(out, "%s: available\n", name)
		return nil
	}

	var mna *boterr.ModelNotAvailableError
	if errors.As(err, &mna) {
		fmt.Fprintf(out, "%s: %s\n", name, mna.Reason)
		fmt.Fprintln(out, mna.UserMessage())
	}
	return err
}
