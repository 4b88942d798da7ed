package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"JobMatch-backend/internal/scoring"
	"JobMatch-backend/internal/storage"
	"JobMatch-backend/internal/store"
	"JobMatch-backend/internal/submission"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Retry scoring for applications whose analysis failed",
	Long:  "Sends every resume stored with the 'CV analysis failed' result back to the scorer and saves the new analysis.",
	RunE:  runRescore,
}

var rescoreJobID uint

func init() {
	rescoreCmd.Flags().UintVarP(&rescoreJobID, "job", "j", 0, "Only rescore applications of this job (all jobs when 0)")
	rootCmd.AddCommand(rescoreCmd)
}

func runRescore(cmd *cobra.Command, _ []string) error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var objects storage.ObjectStore
	if cfg.Storage.Bucket != "" {
		gcs, err := storage.NewCloudStorageClient(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create cloud storage client: %w", err)
		}
		defer func() { _ = gcs.Close() }()
		objects = gcs
	}

	r := &submission.Rescorer{
		Store:   store.New(db.DB),
		Resumes: storage.NewDBResumeStorage(db.DB, objects),
		Scorer:  scoring.NewClient(cfg.Scorer.URL, cfg.Scorer.Timeout, cfg.Scorer.TempDir),
	}
	report, err := r.Rescore(ctx, rescoreJobID)
	if err != nil {
		return fmt.Errorf("rescore aborted: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Attempted: %d, rescored: %d, still failing: %d\n",
		report.Attempted, report.Rescored, report.Failed)
	return nil
}
