package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/stoolpool-api/internal/handler/dto"
	"github.com/yourusername/stoolpool-api/internal/repository/file"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
)

const defaultHistoryFile = "stool_results.json"

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage a local history file in the mobile app format",
	}
	cmd.PersistentFlags().String("file", defaultHistoryFile, "Path to the history file")

	cmd.AddCommand(newHistoryAddCmd())
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryRemoveCmd())
	cmd.AddCommand(newHistoryStatsCmd())
	return cmd
}

func openHistoryStore(cmd *cobra.Command) (*file.HistoryStore, *time.Location, error) {
	loc, err := resolveLocation(cmd)
	if err != nil {
		return nil, nil, err
	}
	path, _ := cmd.Flags().GetString("file")
	return file.NewHistoryStore(path, loc), loc, nil
}

func newHistoryAddCmd() *cobra.Command {
	var answersJSON, date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Score answers and append the result to the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, loc, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}
			answers, err := parseAnswers(answersJSON)
			if err != nil {
				return err
			}
			if !assessment.IsPainInRange(answers.Pain) {
				return &usageErr{msg: "pain ratings must be between 0 and 10"}
			}

			takenAt := time.Now().In(loc)
			if date != "" {
				parsed := assessment.ParseLegacyDate(date, loc)
				if parsed == nil {
					return &usageErr{msg: fmt.Sprintf("unrecognized --date %q", date)}
				}
				takenAt = *parsed
			}

			entry := assessment.Evaluate(answers, &takenAt).Entry(0, uuid.NewString())
			if err := store.Append(cmd.Context(), entry); err != nil {
				return fmt.Errorf("failed to save history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved: score %d (%s) - %s\n", entry.Score, entry.Color, entry.Result)
			return nil
		},
	}

	cmd.Flags().StringVar(&answersJSON, "answers", "", "Answers as a JSON object or the legacy positional array")
	cmd.Flags().StringVar(&date, "date", "", "Date the quiz was taken (default: now)")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List results, newest first. INDEX is the value for 'history remove'",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, loc, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}
			history, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}

			if history.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no results yet")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tDATE\tSCORE\tCOLOR\tRESULT")
			latestFirst := history.LatestFirst()
			for i, e := range latestFirst {
				date := assessment.InvalidDate
				if e.HasValidDate() {
					date = e.TakenAt.In(loc).Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", len(latestFirst)-1-i, date, e.Score, e.Color, e.Result)
			}
			return tw.Flush()
		},
	}
}

func newHistoryRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove a result by the index shown in 'history list'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return &usageErr{msg: fmt.Sprintf("invalid index %q", args[0])}
			}
			store, _, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}

			if err := store.Remove(cmd.Context(), index); err != nil {
				if errors.Is(err, assessment.ErrIndexOutOfRange) {
					return &usageErr{msg: fmt.Sprintf("no result with index %d", index)}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed result %d\n", index)
			return nil
		},
	}
}

func newHistoryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, loc, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}
			history, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}

			summary := assessment.Aggregate(history.Entries(), assessment.AggregateOptions{
				Now:      time.Now(),
				Location: loc,
			})
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dto.NewStatsResponse(summary))
		},
	}
}
