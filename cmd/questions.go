package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/extract"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/questions"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Generate interview questions from a resume and a job post without starting a session",
	Run: func(cmd *cobra.Command, _ []string) {
		generateQuestions(cmd)
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)

	questionsCmd.Flags().StringP("resume", "r", "", "path to the resume (pdf or text)")
	questionsCmd.Flags().StringP("job-post", "p", "", "path to the job post (pdf or text)")
	questionsCmd.Flags().Bool("interview", false, "generate the short spoken-interview list instead of the recruiter set")
	questionsCmd.Flags().StringP("output", "o", "", "write the result to a file instead of stdout")

	questionsCmd.MarkFlagRequired("resume")
	questionsCmd.MarkFlagRequired("job-post")
}

func generateQuestions(cmd *cobra.Command) {
	ctx := cmd.Context()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	resumePath, _ := cmd.Flags().GetString("resume")
	jobPostPath, _ := cmd.Flags().GetString("job-post")
	interviewOnly, _ := cmd.Flags().GetBool("interview")
	output, _ := cmd.Flags().GetString("output")

	extractor := extract.New(logger)
	resume, err := readDocument(extractor, resumePath)
	if err != nil {
		logger.Fatal("reading resume", zap.Error(err))
	}
	jobPost, err := readDocument(extractor, jobPostPath)
	if err != nil {
		logger.Fatal("reading job post", zap.Error(err))
	}

	p, err := newProviders(ctx, config, logger)
	if err != nil {
		logger.Fatal("building llm provider", zap.Error(err))
	}

	gen := questions.New(p.llm, logger.With(zap.String("provider", p.llmName)), questions.Options{
		MaxQuestions:          config.Interview.MaxQuestions,
		RecruiterMaxQuestions: config.Interview.RecruiterMaxQuestions,
		MaxLogLength:          config.LLM.MaxLogLength,
	})

	var result any
	if interviewOnly {
		result = gen.Interview(ctx, resume, jobPost)
	} else {
		result = gen.Recruiter(ctx, resume, jobPost)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("encoding questions", zap.Error(err))
	}

	if output == "" {
		fmt.Println(string(data))
		return
	}

	if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
		logger.Fatal("writing questions", zap.Error(err))
	}
	logger.Info("questions written to file", zap.String("filename", output))
}

func readDocument(extractor *extract.Extractor, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return extractor.Extract(filepath.Base(path), data)
}
