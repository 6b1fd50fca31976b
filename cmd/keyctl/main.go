// Package main はCLIツールのエントリポイント。
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	apiURL   string
	apiToken string
	output   string
	timeout  time.Duration
)

// HTTPクライアント
var httpClient *http.Client

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "keyctl",
		Short: "Activation Key Service CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// 既存の環境変数は上書きしない
			_ = godotenv.Load()
			if apiURL == "" {
				apiURL = os.Getenv("KEYCTL_API_URL")
			}
			if apiToken == "" {
				apiToken = os.Getenv("KEYCTL_API_TOKEN")
			}
			httpClient = &http.Client{Timeout: timeout}
		},
		SilenceUsage: true,
	}

	// グローバルフラグ
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API endpoint URL (or set KEYCTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "Admin bearer token (or set KEYCTL_API_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	// サブコマンド登録
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(activateCmd())
	rootCmd.AddCommand(deactivateCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(provisionCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(digestCmd())
	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(blacklistCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "keyctl version %s\n", version)
		},
	}
}

// callAPI はAPIを呼び出し、期待したステータスであればレスポンスボディを返す。
func callAPI(method, path string, reqBody any, wantStatus int) ([]byte, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("--api-url is required (or set KEYCTL_API_URL)")
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, strings.TrimRight(apiURL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+apiToken)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != wantStatus {
		return respBody, handleErrorResponse(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// printResult は --output に応じてレスポンスを出力する。text の場合は render を使う。
func printResult(w io.Writer, body []byte, render func(w io.Writer, body []byte) error) error {
	if output == "json" {
		fmt.Fprintln(w, strings.TrimSpace(string(body)))
		return nil
	}
	return render(w, body)
}

// printMessage はレスポンスの message を出力する。
func printMessage(w io.Writer, body []byte) error {
	var result struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	fmt.Fprintln(w, result.Message)
	return nil
}

func handleErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("%s (%s, status %d)", errResp.Message, errResp.Code, statusCode)
	}
	return fmt.Errorf("server returned status %d", statusCode)
}
