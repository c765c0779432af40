package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/model"
)

var (
	analyzeQuestionsPath string
	analyzeImagePaths    []string
	analyzeAge           int
	analyzeSkinType      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis from the command line",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		prof, err := loadProfile(analyzeQuestionsPath)
		if err != nil {
			return err
		}
		if analyzeAge > 0 {
			prof.Age = &analyzeAge
		}
		prof.SkinType = analyzeSkinType

		images, err := loadImages(analyzeImagePaths)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Orchestrator.Analyze(ctx, prof, images)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "encode result")
		}

		zap.L().Info("analysis complete",
			zap.String("skin_type", string(result.SkinType)),
			zap.Int("morning_products", len(result.Routine.Morning)),
			zap.Int("night_products", len(result.Routine.Night)),
		)
		return nil
	},
}

// loadProfile reads the questionnaire JSON: an array of {question, answer}.
func loadProfile(path string) (model.SkinProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.SkinProfile{}, eris.Wrap(err, "read questions file")
	}

	var prof model.SkinProfile
	if err := json.Unmarshal(raw, &prof.Questions); err != nil {
		return model.SkinProfile{}, eris.Wrap(err, "decode questions file")
	}
	if len(prof.Questions) == 0 {
		return model.SkinProfile{}, eris.New("questions file is empty")
	}
	return prof, nil
}

func loadImages(paths []string) ([]model.ImagePayload, error) {
	if len(paths) == 0 {
		return nil, eris.New("at least one --image is required")
	}

	images := make([]model.ImagePayload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, eris.Wrapf(err, "read image %s", p)
		}
		images = append(images, model.ImagePayload{
			MediaType: http.DetectContentType(data),
			Data:      data,
		})
	}
	return images, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeQuestionsPath, "questions", "", "path to questionnaire JSON (required)")
	analyzeCmd.Flags().StringSliceVar(&analyzeImagePaths, "image", nil, "facial image path (repeatable, required)")
	analyzeCmd.Flags().IntVar(&analyzeAge, "age", 0, "explicit age (overrides text heuristics)")
	analyzeCmd.Flags().StringVar(&analyzeSkinType, "skin-type", "", "declared skin type (seca, mista, oleosa, normal)")
	_ = analyzeCmd.MarkFlagRequired("questions")
	_ = analyzeCmd.MarkFlagRequired("image")
	rootCmd.AddCommand(analyzeCmd)
}
