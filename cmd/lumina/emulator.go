package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/lumina/internal/emulator"
)

func emulatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emulator",
		Short: "Manage the local emulator backend",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "verify [email]",
		Short: "Mark an emulator account's email as verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			emu, err := emulator.Open(cfg.EmulatorPath(), log)
			if err != nil {
				return err
			}
			defer emu.Close()

			if err := emu.Verify(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("verify %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Verified %s\n", args[0])
			return nil
		},
	})
	return cmd
}
