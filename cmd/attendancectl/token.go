package main

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenRole    string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a device or operator",
	Example: `
  # Token for an attendance terminal
  attendancectl token --subject gate-lobby --role device

  # Token for an HR owner
  attendancectl token --subject hr-ops --role owner
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role := auth.Role(tokenRole)
		if !role.IsValid() {
			return fmt.Errorf("unknown role %q (want owner, manager, employee or device)", tokenRole)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration).GenerateAccessToken(tokenSubject, role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at unix %d\n", expiresAt)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject, e.g. the device name")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(auth.RoleDevice), "Role: owner, manager, employee or device")
	_ = tokenCmd.MarkFlagRequired("subject")
}
