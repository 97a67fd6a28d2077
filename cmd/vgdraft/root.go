package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vgreport/vgdraft/internal/database"
	"github.com/vgreport/vgdraft/internal/services"
	"github.com/vgreport/vgdraft/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "vgdraft",
	Short: "vgdraft - draft engine for kindergarten report-card comments",
	Long:  "vgdraft manages 12-box comment drafts per student and reporting period, with undo history, debounced persistence, and deterministic CSV export.",
}

func init() {
	rootCmd.AddCommand(newRosterCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newPeriodCmd())
	rootCmd.AddCommand(newRoleCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newMCPCmd())
}

// engine bundles the opened database with the services and hydrated store
// most commands need.
type engine struct {
	dbCtx    *database.Context
	roster   *services.RosterService
	drafts   *services.DraftService
	settings *services.SettingService
	store    *store.Store
}

func openEngine(ctx context.Context) (*engine, error) {
	dbCtx, err := database.CreateDatabase("")
	if err != nil {
		return nil, err
	}

	e := &engine{
		dbCtx:    dbCtx,
		roster:   services.NewRosterService(dbCtx),
		drafts:   services.NewDraftService(dbCtx, nil),
		settings: services.NewSettingService(dbCtx),
	}
	e.store = store.New(e.drafts, e.roster)

	period, err := e.settings.ActivePeriod(ctx)
	if err != nil {
		e.close()
		return nil, err
	}
	if err := e.store.SetPeriod(ctx, period); err != nil {
		e.close()
		return nil, err
	}
	role, err := e.settings.ActiveRole(ctx)
	if err != nil {
		e.close()
		return nil, err
	}
	if err := e.store.SetRole(role); err != nil {
		e.close()
		return nil, err
	}
	if err := e.store.Load(ctx); err != nil {
		e.close()
		return nil, fmt.Errorf("failed to hydrate drafts: %w", err)
	}

	return e, nil
}

func (e *engine) close() {
	_ = e.store.Flush(context.Background())
	_ = database.CloseDatabase(e.dbCtx)
}
