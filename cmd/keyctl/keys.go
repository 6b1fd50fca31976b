package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"activation-key-service/internal/domain"
)

type keyBody struct {
	Key string `json:"key"`
}

// keyMutationCmd は {key} を送ってメッセージを受け取るだけのコマンドを生成する。
func keyMutationCmd(use, short, method, path string, wantStatus int) *cobra.Command {
	return &cobra.Command{
		Use:   use + " KEY",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callAPI(method, path, keyBody{Key: args[0]}, wantStatus)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), body, printMessage)
		},
	}
}

// createCmd は鍵の登録コマンド。
func createCmd() *cobra.Command {
	return keyMutationCmd("create", "Register a new activation key (admin)", http.MethodPost, "/create", http.StatusCreated)
}

// deactivateCmd は鍵の無効化コマンド。
func deactivateCmd() *cobra.Command {
	return keyMutationCmd("deactivate", "Deactivate an active key", http.MethodPost, "/deactivate", http.StatusOK)
}

// deleteCmd は鍵の削除コマンド。
func deleteCmd() *cobra.Command {
	return keyMutationCmd("delete", "Permanently delete a key (admin)", http.MethodDelete, "/delkey", http.StatusOK)
}

// provisionCmd は鍵のプロビジョニングコマンド。
func provisionCmd() *cobra.Command {
	return keyMutationCmd("provision", "Mark a created key as ready for activation (admin)", http.MethodPost, "/provision", http.StatusOK)
}

// activateCmd は鍵の有効化コマンド。
func activateCmd() *cobra.Command {
	var duration string
	cmd := &cobra.Command{
		Use:   "activate KEY",
		Short: "Activate a key for a duration such as 2w, 1m or 1y",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParseDuration(duration); err != nil {
				return err
			}
			body, err := callAPI(http.MethodPost, "/activate", struct {
				Key      string `json:"key"`
				Duration string `json:"duration"`
			}{args[0], duration}, http.StatusOK)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), body, func(w io.Writer, body []byte) error {
				var result struct {
					ExpiresAt string `json:"expires_at"`
				}
				if err := json.Unmarshal(body, &result); err != nil {
					return fmt.Errorf("parsing response: %w", err)
				}
				fmt.Fprintf(w, "Activated (expires at %s)\n", result.ExpiresAt)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&duration, "duration", "", "Validity duration: <count><w|m|y> (required)")
	cmd.MarkFlagRequired("duration")
	return cmd
}

// checkCmd は鍵の有効性確認コマンド。
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check KEY",
		Short: "Check whether a key is active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callAPI(http.MethodGet, "/check/"+url.PathEscape(args[0]), nil, http.StatusOK)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), body, func(w io.Writer, body []byte) error {
				var result struct {
					IsActive  bool    `json:"is_active"`
					ExpiresAt *string `json:"expires_at"`
				}
				if err := json.Unmarshal(body, &result); err != nil {
					return fmt.Errorf("parsing response: %w", err)
				}
				if !result.IsActive {
					fmt.Fprintln(w, "inactive")
					return nil
				}
				fmt.Fprintf(w, "active (expires at %s)\n", *result.ExpiresAt)
				return nil
			})
		},
	}
}

// listCmd は鍵一覧の取得コマンド。
func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all keys (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callAPI(http.MethodGet, "/allkeys", nil, http.StatusOK)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), body, func(out io.Writer, body []byte) error {
				var keys []struct {
					ID             uint    `json:"id"`
					Key            string  `json:"key"`
					IsActive       bool    `json:"is_active"`
					ExpirationDate *string `json:"expiration_date"`
				}
				if err := json.Unmarshal(body, &keys); err != nil {
					return fmt.Errorf("parsing response: %w", err)
				}

				w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "ID\tDIGEST\tACTIVE\tEXPIRES AT")
				for _, k := range keys {
					expires := "-"
					if k.ExpirationDate != nil {
						expires = *k.ExpirationDate
					}
					fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", k.ID, domain.ShortDigest(k.Key), k.IsActive, expires)
				}
				return w.Flush()
			})
		},
	}
}

// digestCmd は平文の鍵のダイジェストをローカルで計算する。
func digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest KEY",
		Short: "Print the stored digest of a key without contacting the API",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), domain.Digest(args[0]))
		},
	}
}
