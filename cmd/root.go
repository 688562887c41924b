package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interviewer/internal/server"
	"github.com/spigell/interviewer/internal/store"
)

const (
	app       = "interviewer"
	envPrefix = "INTERVIEWER"
)

type Config struct {
	Server        server.Config       `mapstructure:"server"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Gemini        GeminiConfig        `mapstructure:"gemini"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Interview     InterviewConfig     `mapstructure:"interview"`
	Store         store.Config        `mapstructure:"store"`
	Archive       ArchiveConfig       `mapstructure:"archive"`
}

type LLMConfig struct {
	Provider     string        `mapstructure:"provider"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

type GeminiConfig struct {
	APIKey             string `mapstructure:"api-key"`
	APIKeyFile         string `mapstructure:"api-key-file"`
	Model              string `mapstructure:"model"`
	MaxRetries         int    `mapstructure:"max-retries"`
	TranscriptionModel string `mapstructure:"transcription-model"`
}

type OpenAIConfig struct {
	APIKey             string `mapstructure:"api-key"`
	APIKeyFile         string `mapstructure:"api-key-file"`
	BaseURL            string `mapstructure:"base-url"`
	Model              string `mapstructure:"model"`
	TranscriptionModel string `mapstructure:"transcription-model"`
	MaxRetries         int    `mapstructure:"max-retries"`
}

type TranscriptionConfig struct {
	Provider string        `mapstructure:"provider"`
	MimeType string        `mapstructure:"mime-type"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type InterviewConfig struct {
	MaxQuestions          int `mapstructure:"max-questions"`
	RecruiterMaxQuestions int `mapstructure:"recruiter-max-questions"`
}

type ArchiveConfig struct {
	Driver string             `mapstructure:"driver"`
	Local  LocalArchiveConfig `mapstructure:"local"`
	S3     S3ArchiveConfig    `mapstructure:"s3"`
}

type LocalArchiveConfig struct {
	Dir string `mapstructure:"dir"`
}

type S3ArchiveConfig struct {
	Bucket              string `mapstructure:"bucket"`
	Prefix              string `mapstructure:"prefix"`
	Region              string `mapstructure:"region"`
	Endpoint            string `mapstructure:"endpoint"`
	AccessKeyID         string `mapstructure:"access-key-id"`
	AccessKeyIDFile     string `mapstructure:"access-key-id-file"`
	SecretAccessKey     string `mapstructure:"secret-access-key"`
	SecretAccessKeyFile string `mapstructure:"secret-access-key-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interviewer runs spoken technical interviews generated from a resume and a job post",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every key so that environment overrides reach viper.Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"server.listen":                     ":8000",
		"server.answer-timeout":             "10m",
		"server.max-upload-size":            20 << 20,
		"server.allowed-origins":            []string{"*"},
		"llm.provider":                      "gemini",
		"llm.timeout":                       "2m",
		"llm.max-log-length":                200,
		"gemini.api-key":                    "",
		"gemini.api-key-file":               "",
		"gemini.model":                      "gemini-2.5-flash",
		"gemini.max-retries":                3,
		"gemini.transcription-model":        "",
		"openai.api-key":                    "",
		"openai.api-key-file":               "",
		"openai.base-url":                   "",
		"openai.model":                      "gpt-4.1-mini",
		"openai.transcription-model":        "whisper-1",
		"openai.max-retries":                2,
		"transcription.provider":            "",
		"transcription.mime-type":           "audio/wav",
		"transcription.timeout":             "2m",
		"interview.max-questions":           7,
		"interview.recruiter-max-questions": 15,
		"store.driver":                      store.DriverMemory,
		"store.badger.dir":                  "data/badger",
		"store.badger.in-memory":            false,
		"store.sqlite.path":                 "interviewer.db",
		"store.mongo.uri":                   "",
		"store.mongo.database":              "interview_db",
		"store.mongo.collection":            "sessions",
		"archive.driver":                    "none",
		"archive.local.dir":                 "uploads",
		"archive.s3.bucket":                 "",
		"archive.s3.prefix":                 "",
		"archive.s3.region":                 "",
		"archive.s3.endpoint":               "",
		"archive.s3.access-key-id":          "",
		"archive.s3.access-key-id-file":     "",
		"archive.s3.secret-access-key":      "",
		"archive.s3.secret-access-key-file": "",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	// A missing .env file is fine; the environment may already be populated.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &config, nil
}
