package main

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nailstudio/salon-backend/internal/domain"
)

const minPasswordLen = 6

var passwdCmd = &cobra.Command{
	Use:   "passwd <new-password>",
	Short: "Change the admin password",
	Long: `passwd stores a new admin password in the configured store. Tokens issued
for the previous password stop working immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: runPasswd,
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}

func runPasswd(cmd *cobra.Command, args []string) error {
	pw := strings.TrimSpace(args[0])
	if err := checkPassword(pw); err != nil {
		return err
	}

	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.Settings().Update(cmd.Context(), domain.SettingsPatch{AdminPassword: &pw}); err != nil {
		return err
	}
	log.Info().Msg("admin password updated")
	return nil
}

func checkPassword(pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}
