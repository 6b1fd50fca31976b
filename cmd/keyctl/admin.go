package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// adminCmd は管理者レジストリのコマンド。
// grant/list はAPI経由、bootstrap/revoke はデータベースを直接操作する。
func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin IP addresses",
	}

	grant := &cobra.Command{
		Use:   "grant IP",
		Short: "Grant admin capability to an IP through the API (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callAPI(http.MethodPost, "/setadmin", map[string]string{"ip": args[0]}, http.StatusCreated)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), body, printMessage)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List admin IPs through the API (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callAPI(http.MethodGet, "/alladmin", nil, http.StatusOK)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), body, func(out io.Writer, body []byte) error {
				var admins []struct {
					ID uint   `json:"id"`
					IP string `json:"ip"`
				}
				if err := json.Unmarshal(body, &admins); err != nil {
					return fmt.Errorf("parsing response: %w", err)
				}
				w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "ID\tIP")
				for _, a := range admins {
					fmt.Fprintf(w, "%d\t%s\n", a.ID, a.IP)
				}
				return w.Flush()
			})
		},
	}

	bootstrap := &cobra.Command{
		Use:   "bootstrap IP...",
		Short: "Register admin IPs directly in the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openAccessService()
			if err != nil {
				return err
			}
			if err := svc.BootstrapAdmins(cmd.Context(), args); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %d admin IP(s).\n", len(args))
			return nil
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke IP",
		Short: "Remove an admin IP directly from the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openAccessService()
			if err != nil {
				return err
			}
			if err := svc.RevokeAdmin(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked admin %s.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(grant, list, bootstrap, revoke)
	return cmd
}

// blacklistCmd はブラックリストのコマンド。APIには公開されていないためデータベースを直接操作する。
func blacklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Manage blocked IP addresses (direct database access)",
	}

	add := &cobra.Command{
		Use:   "add IP",
		Short: "Block every request from an IP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openAccessService()
			if err != nil {
				return err
			}
			entry, err := svc.BlockIP(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Blocked %s.\n", entry.IP)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove IP",
		Short: "Unblock an IP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openAccessService()
			if err != nil {
				return err
			}
			if err := svc.UnblockIP(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unblocked %s.\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List blocked IPs",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openAccessService()
			if err != nil {
				return err
			}
			entries, err := svc.ListBlocked(cmd.Context())
			if err != nil {
				return err
			}
			if output == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(entries)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tIP\tCREATED AT")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\n", e.ID, e.IP, e.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}
