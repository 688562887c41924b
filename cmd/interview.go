package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
)

const (
	defaultServerURL = "http://localhost:8000"
	clientTimeout    = 5 * time.Minute
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Take an interview against a running server, answering with audio files",
	Run: func(cmd *cobra.Command, _ []string) {
		if err := takeInterview(cmd); err != nil && !errors.Is(err, promptui.ErrInterrupt) {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("server", "s", defaultServerURL, "base url of the interview server")
	interviewCmd.Flags().StringP("resume", "r", "", "path to the resume (pdf or text)")
	interviewCmd.Flags().StringP("job-post", "p", "", "path to the job post (pdf or text)")
	interviewCmd.Flags().String("session", "", "resume an existing session instead of starting a new one")
}

func takeInterview(cmd *cobra.Command) error {
	ctx := cmd.Context()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}

	base, _ := cmd.Flags().GetString("server")
	sessionID, _ := cmd.Flags().GetString("session")

	if sessionID == "" {
		resumePath, _ := cmd.Flags().GetString("resume")
		jobPostPath, _ := cmd.Flags().GetString("job-post")
		if resumePath == "" || jobPostPath == "" {
			return errors.New("--resume and --job-post are required to start an interview")
		}

		started, err := startInterview(ctx, base, resumePath, jobPostPath)
		if err != nil {
			return err
		}
		sessionID = started.SessionID
		logger.Info(started.Message, zap.String("session_id", sessionID))
	}

	wsURL, err := websocketURL(base, sessionID)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	for {
		var msg interview.Message
		if err := conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("server closed the interview: %s", closeErr.Text)
			}
			return fmt.Errorf("reading from server: %w", err)
		}

		switch msg.Type {
		case interview.TypeQuestion, interview.TypeFollowUp:
			fmt.Printf("\n[%s] %s\n", msg.Type, msg.Question)
			audio, err := askForAnswer()
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
				return fmt.Errorf("sending answer: %w", err)
			}
		case interview.TypeComplete:
			fmt.Printf("\n%s\n", msg.Message)
			logger.Info("interview finished", zap.String("session_id", sessionID))
			return nil
		case interview.TypeError:
			logger.Warn(msg.Message, zap.String("session_id", sessionID))
		default:
			logger.Debug("ignoring unknown message", zap.String("type", msg.Type))
		}
	}
}

// askForAnswer asks for a recorded answer. An empty path sends an empty
// recording, which the server treats as silence.
func askForAnswer() ([]byte, error) {
	prompt := promptui.Prompt{
		Label: "Path to the recorded answer (empty to skip)",
		Validate: func(input string) error {
			input = strings.TrimSpace(input)
			if input == "" {
				return nil
			}
			info, err := os.Stat(input)
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", input)
			}
			return nil
		},
	}

	path, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return []byte{}, nil
	}
	return os.ReadFile(path)
}

func startInterview(ctx context.Context, base, resumePath, jobPostPath string) (*interview.StartResult, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	for _, path := range []string{resumePath, jobPostPath} {
		if err := attachFile(form, "files", path); err != nil {
			return nil, err
		}
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	endpoint, err := url.JoinPath(base, "start_interview")
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", base, err)
	}

	ctx, cancel := context.WithTimeout(ctx, clientTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("starting interview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return nil, fmt.Errorf("starting interview: %s: %s", resp.Status, failure.Detail)
	}

	var result interview.StartResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode start response: %w", err)
	}
	return &result, nil
}

func attachFile(form *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := form.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func websocketURL(base, sessionID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", base, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	return u.JoinPath("ws", sessionID).String(), nil
}
