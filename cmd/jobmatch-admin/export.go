package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"JobMatch-backend/internal/export"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/ranking"
	"JobMatch-backend/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ranked applicants of a job to Excel",
	RunE:  runExport,
}

var (
	exportJobID       uint
	exportOutput      string
	exportShortlisted bool
)

func init() {
	exportCmd.Flags().UintVarP(&exportJobID, "job", "j", 0, "ID of the job (required)")
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "", "Output file (default job-<id>-applicants.xlsx)")
	exportCmd.Flags().BoolVar(&exportShortlisted, "shortlisted", false, "Only export the shortlist")

	if err := exportCmd.MarkFlagRequired("job"); err != nil {
		panic(fmt.Sprintf("failed to mark job flag as required: %v", err))
	}
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var job model.Job
	if err := db.WithContext(ctx).First(&job, exportJobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("job %d not found", exportJobID)
		}
		return err
	}

	apps, err := store.New(db.DB).ListByJob(ctx, job.ID)
	if err != nil {
		return err
	}
	ranked := ranking.Apply(apps, job.ShortlistSize, ranking.Query{Shortlisted: exportShortlisted})

	out := exportOutput
	if out == "" {
		out = export.Filename(job)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export.WriteShortlist(f, job, ranked, time.Now()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d applicants to %s\n", len(ranked), out)
	return nil
}
