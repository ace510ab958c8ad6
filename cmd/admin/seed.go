package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/MrKriegler/go-policy-admin/internal/core"
	"github.com/MrKriegler/go-policy-admin/internal/platform/config"
	"github.com/MrKriegler/go-policy-admin/pkg/policyapi"
)

// seedCommand stores demo quotes starting today and confirms them into policies.
func seedCommand(cfg *config.Config, log *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seeds demo quotes and policies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			confirm, _ := cmd.Flags().GetBool("confirm")

			backend, closeStore, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			quotes := core.NewQuoteService(backend.Quotes)
			policies := core.NewPolicyService(backend.Policies, core.WithLogger(log))

			for _, req := range demoQuotes(time.Now().UTC()) {
				q, err := quotes.Create(ctx, req)
				if err != nil {
					return fmt.Errorf("seed quote: %w", err)
				}
				log.Info("seeded quote", "quote_id", q.ID, "post_code", q.Property.PostCode)

				if !confirm {
					continue
				}
				stored, err := quotes.Get(ctx, q.ID)
				if err != nil {
					return err
				}
				p, err := policies.CreateFromQuote(ctx, stored)
				if err != nil {
					return fmt.Errorf("confirm quote %d: %w", q.ID, err)
				}
				log.Info("seeded policy", "policy_id", p.ID, "quote_id", q.ID)
			}
			return nil
		},
	}
	cmd.Flags().Bool("confirm", true, "Also confirm each quote into a policy")
	return cmd
}

func demoQuotes(now time.Time) []policyapi.QuoteRequest {
	today := core.DateOf(now)
	quote := func(startIn int, amount string, postCode string, holders ...policyapi.Holder) policyapi.QuoteRequest {
		start := core.AddDays(today, startIn)
		return policyapi.QuoteRequest{
			StartDate: policyapi.NewDate(start),
			EndDate:   policyapi.NewDate(core.TermEnd(start)),
			Amount:    decimal.RequireFromString(amount),
			Property: policyapi.Property{
				AddressLine1: "1 High Street",
				AddressLine2: "Flat " + postCode[:2],
				PostCode:     postCode,
			},
			Holders: holders,
		}
	}
	holder := func(first, last string, born time.Time) policyapi.Holder {
		return policyapi.Holder{FirstName: first, LastName: last, DateOfBirth: policyapi.NewDate(born)}
	}

	return []policyapi.QuoteRequest{
		quote(0, "480.00", "SW1A 1AA",
			holder("Ada", "Lovelace", time.Date(1985, 12, 10, 0, 0, 0, 0, time.UTC))),
		quote(14, "725.50", "EC1A 1BB",
			holder("Alan", "Turing", time.Date(1979, 6, 23, 0, 0, 0, 0, time.UTC)),
			holder("Joan", "Clarke", time.Date(1981, 6, 24, 0, 0, 0, 0, time.UTC))),
		quote(45, "312.99", "M1 1AE",
			holder("Grace", "Hopper", time.Date(1990, 12, 9, 0, 0, 0, 0, time.UTC))),
	}
}
