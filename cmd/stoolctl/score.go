package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/handler/dto"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
)

func newScoreCmd() *cobra.Command {
	var answersJSON string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score quiz answers and print the classification",
		Example: `  stoolctl score --answers '{"color":"Black","consistency":"Hard"}'
  stoolctl score --answers '["Yellow","Hard","Normal",{"before":0,"during":0,"after":0},"",""]'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			answers, err := parseAnswers(answersJSON)
			if err != nil {
				return err
			}
			if !assessment.IsPainInRange(answers.Pain) {
				return &usageErr{msg: "pain ratings must be between 0 and 10"}
			}

			evaluation := assessment.Evaluate(answers, nil)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(dto.ScoreResponse{
					Score:   evaluation.Score,
					Tier:    string(evaluation.Tier),
					Color:   evaluation.Color,
					Message: evaluation.Message,
				})
			}
			fmt.Fprintf(out, "score: %d\ntier:  %s\ncolor: %s\n%s\n", evaluation.Score, evaluation.Tier, evaluation.Color, evaluation.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&answersJSON, "answers", "", "Answers as a JSON object or the legacy positional array")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func parseAnswers(raw string) (entity.AnswerRecord, error) {
	var answers entity.AnswerRecord
	if raw == "" {
		return answers, &usageErr{msg: "--answers is required"}
	}
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return answers, &usageErr{msg: fmt.Sprintf("invalid --answers: %v", err)}
	}
	return answers, nil
}
