package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/drillops/survey-cli/internal/model"
	"github.com/drillops/survey-cli/internal/store"
	"github.com/drillops/survey-cli/internal/workflow"
)

var (
	calcSurveyID   string
	calcRunID      string
	calcExtrapID   string
	calcLength     float64
	calcStep       float64
	calcInterpStep float64
	calcMethod     string
	calcSave       bool
	calcExport     string
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate a wellbore extrapolation",
	Long:  "Loads an existing extrapolation or calculates a fresh one for a survey and run, optionally recalculates with overridden parameters, and optionally saves the result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := initClient()
		if err != nil {
			return err
		}

		ctrl := workflow.New(client, workflow.WithDefaultParams(cfg.Params()))

		err = ctrl.Load(ctx, workflow.Inputs{
			ExtrapolationID: calcExtrapID,
			SurveyDataID:    calcSurveyID,
			RunID:           calcRunID,
		})
		if err != nil {
			return eris.Wrap(err, "load")
		}

		params, changed, err := mergeParamFlags(cmd.Flags(), ctrl.Params())
		if err != nil {
			return err
		}
		if changed {
			if err := ctrl.Recalculate(ctx, params); err != nil {
				return eris.Wrap(err, "recalculate")
			}
		}

		hist := openHistory(ctx)
		if hist != nil {
			defer hist.Close() //nolint:errcheck
		}
		if err := saveAndRecord(ctx, ctrl, hist, calcSave); err != nil {
			return err
		}

		result := ctrl.Result()
		zap.L().Info("calculation complete",
			zap.String("survey_data_id", result.SurveyDataID),
			zap.String("run_id", result.RunID),
			zap.Int("extrapolated_points", result.ExtrapolatedPointCount),
			zap.Float64("final_md", result.FinalMD),
			zap.Bool("saved", ctrl.IsSaved()),
		)

		if n := ctrl.Notification(); n != nil {
			fmt.Fprintln(os.Stderr, n.Message)
		}

		if calcExport != "" {
			format := strings.TrimPrefix(filepath.Ext(calcExport), ".")
			if format == "" {
				format = "csv"
			}
			path, err := exportResult(result, format, "combined", calcExport, "")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, path)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// mergeParamFlags applies changed parameter flags onto base and validates the
// merged parameters, so out-of-range values are rejected with the bounds
// message before any request goes out.
func mergeParamFlags(flags *pflag.FlagSet, base model.Params) (model.Params, bool, error) {
	var changed bool
	if flags.Changed("length") {
		base.Length = calcLength
		changed = true
	}
	if flags.Changed("step") {
		base.Step = calcStep
		changed = true
	}
	if flags.Changed("interp-step") {
		base.InterpStep = calcInterpStep
		changed = true
	}
	if flags.Changed("method") {
		m, err := model.ParseMethod(calcMethod)
		if err != nil {
			return base, false, err
		}
		base.Method = m
		changed = true
	}

	if changed {
		if err := base.Validate(); err != nil {
			return base, false, err
		}
	}
	return base, changed, nil
}

// openHistory opens the local store for history recording. History is best
// effort: a broken store logs a warning and the command proceeds without it.
func openHistory(ctx context.Context) store.Store {
	st, err := initStore(ctx)
	if err != nil {
		zap.L().Warn("history store unavailable", zap.Error(err))
		return nil
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("migrate history store", zap.Error(err))
		_ = st.Close()
		return nil
	}
	return st
}

// saveAndRecord records the calculation in local history, then runs the
// optional save and links the remote id back onto the history row.
func saveAndRecord(ctx context.Context, ctrl *workflow.Controller, hist store.Store, doSave bool) error {
	var recID string
	if hist != nil {
		rec, err := hist.RecordCalculation(ctx, store.RecordFromResult(ctrl.Result(), ctrl.IsSaved()))
		if err != nil {
			zap.L().Warn("record calculation", zap.Error(err))
		} else {
			recID = rec.ID
		}
	}

	if !doSave {
		return nil
	}
	if err := ctrl.Save(ctx); err != nil {
		return eris.Wrap(err, "save")
	}
	if recID != "" {
		if err := hist.MarkSaved(ctx, recID, ctrl.Result().ID); err != nil {
			zap.L().Warn("mark saved", zap.Error(err))
		}
	}
	return nil
}

func init() {
	calculateCmd.Flags().StringVar(&calcSurveyID, "survey", "", "survey data ID")
	calculateCmd.Flags().StringVar(&calcRunID, "run", "", "run ID")
	calculateCmd.Flags().StringVar(&calcExtrapID, "extrapolation", "", "existing extrapolation ID to load instead of calculating fresh")
	calculateCmd.Flags().Float64Var(&calcLength, "length", 200, "extrapolation length")
	calculateCmd.Flags().Float64Var(&calcStep, "step", 10, "extrapolation step")
	calculateCmd.Flags().Float64Var(&calcInterpStep, "interp-step", 10, "interpolation step")
	calculateCmd.Flags().StringVar(&calcMethod, "method", "Constant", "extrapolation method (Constant, Linear Trend, Curve Fit)")
	calculateCmd.Flags().BoolVar(&calcSave, "save", false, "save the result to the server")
	calculateCmd.Flags().StringVar(&calcExport, "export", "", "also export the result to this path (format by extension)")
	rootCmd.AddCommand(calculateCmd)
}
