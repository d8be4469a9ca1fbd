package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/hairline-crm/internal/app"
	"github.com/jwalitptl/hairline-crm/internal/config"
	"github.com/jwalitptl/hairline-crm/internal/intake"
	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/service/export"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "crmctl",
		Short:        "Administrative tasks for the clinic CRM",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Directory containing config.yaml")

	rootCmd.AddCommand(createUserCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp loads the configuration named by --config and runs fn against the
// configured store.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	dir, _ := cmd.Flags().GetString("config")
	var paths []string
	if dir != "" {
		paths = append(paths, dir)
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		return err
	}
	app.SetupLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a)
}

func createUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a staff or agent login",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				user, err := a.Auth.Register(ctx, &model.RegisterRequest{
					Name:     name,
					Email:    email,
					Phone:    phone,
					Password: password,
					Role:     model.Role(role),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID.Hex())
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("email", "", "Login e-mail")
	cmd.Flags().String("phone", "", "Phone number")
	cmd.Flags().String("password", "", "Initial password (min 8 characters)")
	cmd.Flags().String("role", string(model.RoleAgent), "Agent, Counsellor or Admin")
	for _, f := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Register patients from a spreadsheet whose header row names form fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, _ := cmd.Flags().GetString("actor")

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			header, rows, err := export.ReadRows(f)
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result := intake.Import(ctx, a.Patient, actor, header, rows)
				for _, failed := range result.Failed {
					log.Warn().Int("row", failed.Row).Err(failed.Err).Msg("Row not imported")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d patients, %d rows failed\n", len(result.Created), len(result.Failed))
				if len(result.Failed) > 0 {
					return fmt.Errorf("%d rows failed", len(result.Failed))
				}
				return nil
			})
		},
	}
	cmd.Flags().String("actor", "crmctl", "Recorded as the creator of imported patients")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a report spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req model.ReportRequest
			req.Type, _ = cmd.Flags().GetString("type")
			req.Period, _ = cmd.Flags().GetString("period")
			req.StartDate, _ = cmd.Flags().GetString("start")
			req.EndDate, _ = cmd.Flags().GetString("end")
			req.StaffFilter, _ = cmd.Flags().GetString("staff")
			branch, _ := cmd.Flags().GetString("branch")
			req.Branch = model.Branch(branch)
			req.Format = "xlsx"
			out, _ := cmd.Flags().GetString("out")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				table, err := a.Reports.Report(ctx, &req)
				if err != nil {
					return err
				}
				if out == "" {
					out = export.Filename(req.Type, time.Now().In(a.Location))
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := export.WriteXLSX(f, table); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(table.Rows), out)
				return nil
			})
		},
	}
	cmd.Flags().String("type", "", "Report type: patients, counsellors, agents, implanters, technicians, techniques, transactions, status")
	cmd.Flags().String("period", model.PeriodMonth, "today, week, month, year, all or custom")
	cmd.Flags().String("start", "", "Custom period start (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Custom period end (YYYY-MM-DD)")
	cmd.Flags().String("staff", "", "Only patients handled by this staff member")
	cmd.Flags().String("branch", "", "Delhi, Mumbai or Hyderabad")
	cmd.Flags().String("out", "", "Output file, defaults to <type>-<date>.xlsx")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
