package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/auth"
	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/db"
	"github.com/compasshq/compass/internal/models"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage Compass users",
	}
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		configPath string
		role       string
		fullName   string
		password   string
	)

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a user",
		Long:  "Creates a user with the given email. Prompts for a password unless --password is set.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(cmd, configPath, args[0], role, fullName, password)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to Compass config file")
	cmd.Flags().StringVar(&role, "role", "member", "user role (member or admin)")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringVar(&password, "password", "", "password (omit to be prompted)")
	return cmd
}

func runUserCreate(cmd *cobra.Command, configPath, email, role, fullName, password string) error {
	userRole := models.Role(role)
	if userRole != models.RoleMember && userRole != models.RoleAdmin {
		return fmt.Errorf("role %q is not valid (member, admin)", role)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	var existing models.User
	if err := conn.Where("email = ?", email).First(&existing).Error; err == nil {
		return fmt.Errorf("user %s already exists", email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup user: %w", err)
	}

	if password == "" {
		password, err = promptPassword(cmd)
		if err != nil {
			return err
		}
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         userRole,
		IsActive:     true,
	}
	if err := conn.Create(&user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s, id %d)\n", user.Email, user.Role, user.ID)
	return nil
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal, use --password")
	}

	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), "Confirm: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}

func newUserListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to Compass config file")
	return cmd
}

func runUserList(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	var users []models.User
	if err := conn.Order("id").Find(&users).Error; err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "No users")
		return nil
	}
	for _, u := range users {
		active := "active"
		if !u.IsActive {
			active = "inactive"
		}
		fmt.Fprintf(out, "%4d  %-32s  %-7s  %s\n", u.ID, u.Email, u.Role, active)
	}
	return nil
}
