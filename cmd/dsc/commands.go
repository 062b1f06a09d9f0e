package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/DomeLiquid/dsc/core"
	"github.com/DomeLiquid/dsc/utils"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func kindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List registered collateral kinds and their prices",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			out := c.OutOrStdout()
			for _, assetId := range app.Engine.GetCollateralTokens() {
				kind, _ := app.Engine.GetCollateralKind(assetId)
				unit := core.Pow10(kind.Decimals)
				price := app.Engine.GetUsdValue(c.Context(), assetId, unit)
				fmt.Fprintf(out, "%s\t%s\tdecimals=%d\toracle=%s\tusd=%s\n",
					assetId, kind.Symbol, kind.Decimals, kind.OracleSetup, core.ToDecimal(price, core.PRECISION_DECIMALS))
			}
			return nil
		},
	}
}

func accountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "account <id-or-address>",
		Short: "Show an account's collateral, debt and health factor",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := c.Context()
			accountId := utils.ParseId(args[0])
			debt, collateralValue := app.Engine.GetAccountInformation(ctx, accountId)
			hf := core.CalculateHealthFactor(debt, collateralValue)

			out := c.OutOrStdout()
			fmt.Fprintf(out, "account\t%s\n", accountId)
			fmt.Fprintf(out, "debt\t%s\n", core.ToDecimal(debt, core.PRECISION_DECIMALS))
			fmt.Fprintf(out, "collateral_usd\t%s\n", core.ToDecimal(collateralValue, core.PRECISION_DECIMALS))
			fmt.Fprintf(out, "health_factor\t%s\n", formatHealthFactor(hf))
			for _, assetId := range app.Engine.GetCollateralTokens() {
				amount := app.Engine.GetCollateralBalanceOfUser(ctx, accountId, assetId)
				if amount.IsZero() {
					continue
				}
				kind, _ := app.Engine.GetCollateralKind(assetId)
				fmt.Fprintf(out, "collateral\t%s\t%s\n", kind.Symbol, core.ToDecimal(amount, kind.Decimals))
			}
			return nil
		},
	}
}

func valueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "value <asset-id> <amount>",
		Short: "Convert an amount of collateral to USD",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			kind, ok := app.Engine.GetCollateralKind(args[0])
			if !ok {
				return errors.Wrap(core.ErrUnregisteredCollateralKind, args[0])
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return errors.Wrap(err, "amount")
			}
			qty, err := core.FromDecimal(amount, kind.Decimals)
			if err != nil {
				return err
			}
			value := app.Engine.GetUsdValue(c.Context(), kind.AssetId, qty)
			fmt.Fprintln(c.OutOrStdout(), core.ToDecimal(value, core.PRECISION_DECIMALS))
			return nil
		},
	}
}

func historyCommand() *cobra.Command {
	var (
		limit  int
		action string
	)
	cmd := &cobra.Command{
		Use:   "history <id-or-address>",
		Short: "List an account's journaled operations, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var op core.ActionType
			if action != "" {
				parsed, ok := core.ParseActionType(action)
				if !ok {
					return errors.Errorf("unknown action %q", action)
				}
				op = parsed
			}

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			operates, err := app.Engine.ListOperates(c.Context(), utils.ParseId(args[0]), op, 0, limit)
			if err != nil {
				return err
			}
			out := c.OutOrStdout()
			for _, o := range operates {
				fmt.Fprintf(out, "%s\t%s\t%s\t%d actions\n",
					time.Unix(o.CreatedAt, 0).UTC().Format(time.RFC3339), o.Id, o.Op, len(o.Extra.Actions))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries")
	cmd.Flags().StringVar(&action, "action", "", "only this action, e.g. "+strconv.Quote(core.ATLiquidate.String()))
	return cmd
}

func formatHealthFactor(hf *uint256.Int) string {
	if hf.Eq(core.MAX_HEALTH_FACTOR) {
		return "inf"
	}
	return core.ToDecimal(hf, core.PRECISION_DECIMALS).String()
}
