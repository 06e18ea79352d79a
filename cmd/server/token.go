package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/pkg/utils/secrets"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Service token helpers",
}

var tokenHashCmd = &cobra.Command{
	Use:   "hash <secret>",
	Short: "Print the argon2id PHC string for NEXUS_AUTH_SERVICETOKENHASHPHC",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cfg.Auth.SecretPepper == "" {
			return errors.New("NEXUS_AUTH_SECRETPEPPER must be set")
		}
		phc, err := secrets.HashSecret(args[0], cfg.Auth.SecretPepper)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), phc)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenHashCmd)
}
