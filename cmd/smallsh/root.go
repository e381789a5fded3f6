package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"smallsh/internal/config"
	"smallsh/internal/shell"
)

var (
	cfgPath string
	noColor bool
	prompt  string
)

// rootCmd starts an interactive session; it takes no positional arguments.
var rootCmd = &cobra.Command{
	Use:          "smallsh",
	Short:        "A small interactive shell",
	Long:         `A small interactive shell with background jobs, redirection and a foreground-only mode toggled by SIGTSTP.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		s, err := shell.New(cfg, afero.NewOsFs())
		if err != nil {
			return fmt.Errorf("error initializing shell: %w", err)
		}

		s.Run()
		return nil
	},
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(afero.NewOsFs(), cfgPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if noColor {
		cfg.Color = false
	}
	if cmd.Flags().Changed("prompt") {
		cfg.Prompt = prompt
	}
	return cfg, nil
}

// Execute runs the shell and exits non-zero if it could not start.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yml", "config file path")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored error output")
	rootCmd.Flags().StringVar(&prompt, "prompt", config.DefaultPrompt, "prompt printed before each line")
}
