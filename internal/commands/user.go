// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tradelite/tradelite/internal/database"
	"github.com/tradelite/tradelite/internal/models"
	"github.com/tradelite/tradelite/internal/utils"
)

func UserCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "user",
		Short: "Manage built-in auth users",
		Example: `  tradelite run user create <email> <password>
  tradelite run user change-password <email> <new-password>`,
		SilenceUsage: true,
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Usage()
	}

	command.AddCommand(UserCreateCommand())
	command.AddCommand(UserChangePasswordCommand())

	return command
}

func UserCreateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     "create",
		Short:   "Create a user",
		Example: `  tradelite run user create <email> <password>`,
		Args:    cobra.MinimumNArgs(2),
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		email := args[0]
		password := args[1]

		if err := utils.ValidatePassword(password); err != nil {
			return err
		}

		db, err := initializeDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		existing, err := db.FindUser(cmd.Context(), database.FindUserParams{Email: email})
		if err != nil {
			return fmt.Errorf("error checking email: %v", err)
		}
		if existing != nil {
			return errors.Errorf("user %s already exists", email)
		}

		hash, err := utils.HashPassword(password)
		if err != nil {
			return err
		}

		user := &models.User{Email: email, PasswordHash: hash}
		if err := db.CreateUser(cmd.Context(), user); err != nil {
			return fmt.Errorf("failed to create user: %v", err)
		}

		fmt.Printf("Created user %s (id %d)\n", user.Email, user.ID)
		return nil
	}

	return command
}

func UserChangePasswordCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     "change-password",
		Short:   "Change a user's password",
		Example: `  tradelite run user change-password <email> <new-password>`,
		Args:    cobra.MinimumNArgs(2),
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		email := args[0]
		password := args[1]

		if err := utils.ValidatePassword(password); err != nil {
			return err
		}

		db, err := initializeDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		user, err := db.FindUser(cmd.Context(), database.FindUserParams{Email: email})
		if err != nil {
			return fmt.Errorf("error looking up user: %v", err)
		}
		if user == nil {
			return errors.Errorf("user %s not found", email)
		}

		hash, err := utils.HashPassword(password)
		if err != nil {
			return err
		}

		if err := db.UpdateUserPassword(cmd.Context(), user.ID, hash); err != nil {
			return fmt.Errorf("failed to update password: %v", err)
		}

		fmt.Printf("Updated password for %s\n", user.Email)
		return nil
	}

	return command
}
