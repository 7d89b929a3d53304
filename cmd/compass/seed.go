package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/auth"
	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/db"
	"github.com/compasshq/compass/internal/models"
)

func newSeedCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with demo data",
		Long: `Creates demo users, projects, and tasks for local development:

  admin@compass.dev / compass-admin  (admin)
  dev@compass.dev   / compass-dev    (member)

One healthy project and one troubled project, so the analysis endpoints
have something interesting to say. Idempotent: skips users that exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to Compass config file")
	return cmd
}

func runSeed(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	admin, err := seedUser(conn, "admin@compass.dev", "compass-admin", "Demo Admin", models.RoleAdmin)
	if err != nil {
		return err
	}
	dev, err := seedUser(conn, "dev@compass.dev", "compass-dev", "Demo Developer", models.RoleMember)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Users: %s, %s\n", admin.Email, dev.Email)

	var existing int64
	conn.Model(&models.Project{}).Where("owner_id = ?", admin.ID).Count(&existing)
	if existing > 0 {
		fmt.Fprintln(out, "Projects already seeded, skipping")
		return nil
	}

	now := time.Now().UTC()
	if err := seedHealthyProject(conn, admin.ID, dev.ID, now); err != nil {
		return err
	}
	if err := seedTroubledProject(conn, admin.ID, dev.ID, now); err != nil {
		return err
	}
	fmt.Fprintln(out, "Projects: website-redesign (healthy), legacy-migration (troubled)")
	return nil
}

func seedUser(conn *gorm.DB, email, password, name string, role models.Role) (models.User, error) {
	var user models.User
	err := conn.Where("email = ?", email).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("seed: lookup %s: %w", email, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("seed: hash password: %w", err)
	}
	user = models.User{Email: email, PasswordHash: hash, FullName: name, Role: role, IsActive: true}
	if err := conn.Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("seed: create %s: %w", email, err)
	}
	return user, nil
}

func seedHealthyProject(conn *gorm.DB, ownerID, devID uint, now time.Time) error {
	budget := 50000.0
	start := now.AddDate(0, -1, 0)
	end := now.AddDate(0, 2, 0)
	project := models.Project{
		Name:        "website-redesign",
		Description: "Marketing site refresh with the new design system.",
		Status:      models.ProjectActive,
		OwnerID:     ownerID,
		StartDate:   &start,
		EndDate:     &end,
		Budget:      &budget,
	}
	if err := conn.Create(&project).Error; err != nil {
		return fmt.Errorf("seed: create project: %w", err)
	}

	done := now.AddDate(0, 0, -5)
	due := now.AddDate(0, 0, 14)
	hours := 6.0
	tasks := []models.Task{
		{ProjectID: project.ID, Title: "Audit current pages", Status: models.TaskDone, Priority: models.PriorityMedium, AssigneeID: &devID, CompletedAt: &done, ActualHours: &hours},
		{ProjectID: project.ID, Title: "Build component library", Status: models.TaskInProgress, Priority: models.PriorityHigh, AssigneeID: &devID, DueDate: &due, EstimatedHours: &hours},
		{ProjectID: project.ID, Title: "Migrate landing page", Status: models.TaskTodo, Priority: models.PriorityMedium, AssigneeID: &devID, DueDate: &due},
	}
	return createTasks(conn, tasks)
}

func seedTroubledProject(conn *gorm.DB, ownerID, devID uint, now time.Time) error {
	budget := 8000.0
	start := now.AddDate(0, -3, 0)
	end := now.AddDate(0, 0, -7) // already past its end date
	project := models.Project{
		Name:        "legacy-migration",
		Description: "Move the billing service off the legacy stack.",
		Status:      models.ProjectActive,
		OwnerID:     ownerID,
		StartDate:   &start,
		EndDate:     &end,
		Budget:      &budget,
	}
	if err := conn.Create(&project).Error; err != nil {
		return fmt.Errorf("seed: create project: %w", err)
	}

	overdue := now.AddDate(0, 0, -20)
	burned := 90.0
	tasks := []models.Task{
		{ProjectID: project.ID, Title: "Map billing tables", Status: models.TaskDone, Priority: models.PriorityHigh, AssigneeID: &devID, CompletedAt: &overdue, ActualHours: &burned},
		{ProjectID: project.ID, Title: "Port invoice jobs", Status: models.TaskInProgress, Priority: models.PriorityCritical, AssigneeID: &devID, DueDate: &overdue},
		{ProjectID: project.ID, Title: "Cut over webhooks", Status: models.TaskTodo, Priority: models.PriorityCritical, DueDate: &overdue},
		{ProjectID: project.ID, Title: "Decommission old stack", Status: models.TaskTodo, Priority: models.PriorityHigh, DueDate: &overdue},
		{ProjectID: project.ID, Title: "Write runbook", Status: models.TaskTodo, Priority: models.PriorityLow},
	}
	return createTasks(conn, tasks)
}

func createTasks(conn *gorm.DB, tasks []models.Task) error {
	for i := range tasks {
		if err := conn.Create(&tasks[i]).Error; err != nil {
			return fmt.Errorf("seed: create task %q: %w", tasks[i].Title, err)
		}
	}
	return nil
}
