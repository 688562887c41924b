package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/spigell/interviewer/internal/session"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or remove interview sessions on a running server",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session_id>",
	Short: "Print the stored session record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := showSession(cmd, args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session_id>",
	Short: "Delete a session and its archived uploads",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := deleteSession(cmd, args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionShowCmd, sessionDeleteCmd)

	sessionCmd.PersistentFlags().StringP("server", "s", defaultServerURL, "base url of the interview server")
	sessionDeleteCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation")
}

func showSession(cmd *cobra.Command, id string) error {
	base, _ := cmd.Flags().GetString("server")

	body, err := sessionRequest(cmd.Context(), http.MethodGet, base, id)
	if err != nil {
		return err
	}

	var snap session.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}

	pretty, _ := json.MarshalIndent(snap, "", "  ")
	fmt.Println(string(pretty))
	return nil
}

func deleteSession(cmd *cobra.Command, id string) error {
	base, _ := cmd.Flags().GetString("server")
	approved, _ := cmd.Flags().GetBool("auto-approve")

	if !approved {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Delete session %s?", id),
			Items: []string{PromptNo, PromptYes},
		}
		_, answer, err := prompt.Run()
		if err != nil {
			return err
		}
		if answer != PromptYes {
			return nil
		}
	}

	if _, err := sessionRequest(cmd.Context(), http.MethodDelete, base, id); err != nil {
		return err
	}
	fmt.Printf("session %s deleted\n", id)
	return nil
}

func sessionRequest(ctx context.Context, method, base, id string) ([]byte, error) {
	endpoint, err := url.JoinPath(base, "sessions", id)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", base, err)
	}

	ctx, cancel := context.WithTimeout(ctx, clientTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &failure) == nil && failure.Detail != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, failure.Detail)
		}
		return nil, fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return body, nil
}
