package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"leadlens/internal/apiclient"
	"leadlens/internal/daemon"
	"leadlens/internal/form"
	"leadlens/internal/language"
	"leadlens/internal/leadlock"
	"leadlens/internal/leads"
	"leadlens/internal/logging"
	"leadlens/internal/services"
)

func newLeadsCommand(ctx *commandContext) *cobra.Command {
	leadsCmd := &cobra.Command{
		Use:   "leads",
		Short: "Inspect and submit leads",
	}
	leadsCmd.AddCommand(newLeadsListCommand(ctx))
	leadsCmd.AddCommand(newLeadsSubmitCommand(ctx))
	leadsCmd.AddCommand(newLeadsExistsCommand(ctx))
	return leadsCmd
}

func newLeadsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var local bool
	var token string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []apiclient.LeadRecord
			var err error
			if local {
				records, err = listLocalLeads(cmd.Context(), ctx)
			} else {
				secret := strings.TrimSpace(token)
				if secret == "" {
					secret = ctx.configValue().Server.AdminToken
				}
				records, err = ctx.apiClient(cliLogger(cmd)).ListLeads(cmd.Context(), secret)
				err = wrapServerError(err, ctx.baseURL())
			}
			if err != nil {
				return err
			}

			sort.SliceStable(records, func(i, j int) bool {
				return records[i].Timestamp < records[j].Timestamp
			})
			if jsonOutput {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No leads stored")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{r.Timestamp, r.Name, r.Email, r.FavoriteColor})
			}
			fmt.Fprintln(out, renderTable([]string{"Timestamp", "Name", "Email", "Favorite Color"}, rows, nil))
			fmt.Fprintf(out, "%d lead(s)\n", len(records))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print leads as JSON")
	cmd.Flags().BoolVar(&local, "local", false, "Read the configured store directly instead of a running server")
	cmd.Flags().StringVar(&token, "token", "", "Admin bearer token (defaults to server.admin_token)")
	return cmd
}

func listLocalLeads(ctx context.Context, cmdCtx *commandContext) ([]apiclient.LeadRecord, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	table, err := daemon.OpenTable(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer, ok := table.(io.Closer); ok {
		defer closer.Close()
	}

	list, err := leads.NewService(table, leadlock.NewLocal(), logging.NewNop()).List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]apiclient.LeadRecord, 0, len(list))
	for _, l := range list {
		records = append(records, apiclient.LeadRecord{
			Timestamp:     l.Timestamp,
			Name:          l.Name,
			Email:         l.Email,
			FavoriteColor: l.FavoriteColor,
		})
	}
	return records, nil
}

func newLeadsSubmitCommand(ctx *commandContext) *cobra.Command {
	var name, email, color, lang string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a lead through a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := language.Normalize(lang)
			data := form.Sanitize(form.Data{Name: name, Email: email, FavoriteColor: color})
			if result := form.Validate(data); !result.Valid {
				messages := result.Messages(target)
				for _, field := range result.Fields() {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, messages[field])
				}
				return errors.New(services.MessageFor(services.KindFormValidation, target))
			}

			client := ctx.apiClient(cliLogger(cmd))
			var resp apiclient.Response
			var err error
			if client.CheckEmailExists(cmd.Context(), data.Email) {
				resp, err = client.UpdateExistingData(cmd.Context(), data.Email, data)
			} else {
				resp, err = client.SaveFormData(cmd.Context(), data)
			}
			if err != nil {
				return errors.New(services.UserMessage(err, target))
			}

			action := resp.Action
			if action == "" {
				action = "saved"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lead %s: %s <%s>\n", action, data.Name, data.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Lead name")
	cmd.Flags().StringVar(&email, "email", "", "Lead email address")
	cmd.Flags().StringVar(&color, "color", "", "Favorite color (optional)")
	cmd.Flags().StringVar(&lang, "lang", "", "Message language (en, pt, es)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLeadsExistsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "exists EMAIL",
		Short: "Check whether a lead is already stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.ToLower(strings.TrimSpace(args[0]))
			exists := ctx.apiClient(cliLogger(cmd)).CheckEmailExists(cmd.Context(), email)
			fmt.Fprintln(cmd.OutOrStdout(), yesNo(exists))
			return nil
		},
	}
}
