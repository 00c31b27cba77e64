package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/lumina/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
			}
			if err := config.DefaultConfig().Save(configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if backendOpt != "" {
				cfg.Backend = backendOpt
			}

			masked := *cfg
			masked.Firebase.APIKey = mask(cfg.Firebase.APIKey)
			masked.Google.ClientSecret = mask(cfg.Google.ClientSecret)
			masked.AI.APIKey = mask(cfg.AI.APIKey)

			out, err := yaml.Marshal(&masked)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", configPath, out)
			return nil
		},
	}
}

func mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 4:
		return "****"
	default:
		return secret[:4] + "****"
	}
}
