package main

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/fystack/crown-clash/internal/arbiter"
	"github.com/fystack/crown-clash/internal/config"
	"github.com/fystack/crown-clash/pkg/common/logger"
)

func parseLamports(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create round 1 from the game section of the config.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			state, err := a.arbiter.Initialize(cmd.Context(), arbiter.InitRequest{
				Authority:       a.keys.Authority,
				Wallets:         a.keys.Wallets,
				StealMint:       a.keys.StealMint,
				JackpotSeed:     a.cfg.Game.JackpotSeed,
				YieldSeed:       a.cfg.Game.YieldSeed,
				SeasonStartTime: a.cfg.Game.SeasonStart,
				Addresses:       a.addrs,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s%s %s Game initialized%s\n", colorBold, colorGreen, emojiCrown, colorReset)
			fmt.Fprintf(out, "  %s Game: %s\n", emojiSearch, a.addrs.Game)
			fmt.Fprintf(out, "  %s Vault: %s\n", emojiSearch, a.addrs.Vault)
			printState(out, state, 0)
			return nil
		}),
	}
}

func (a *app) fundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fund <wallet|vault|dev|beast> <lamports>",
		Short: "Credit lamports to a ledger account.",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			owner, err := a.parseWallet(args[0])
			if err != nil {
				return err
			}
			amount, err := parseLamports(args[1])
			if err != nil {
				return err
			}
			if err := a.store.Credit(cmd.Context(), owner, amount); err != nil {
				return err
			}
			balance, err := a.store.BalanceOf(cmd.Context(), owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s balance %s\n", emojiCheck, owner, sol(balance))
			return nil
		}),
	}
}

func (a *app) tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <wallet> <amount>",
		Short: "Set a wallet's steal token balance in the local token book.",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			owner, err := a.parseWallet(args[0])
			if err != nil {
				return err
			}
			amount, err := parseLamports(args[1])
			if err != nil {
				return err
			}
			if a.cfg.Identity.Source == config.IdentityRPC {
				logger.Warn("Identity source is rpc, the local token book is not consulted")
			}
			if err := a.store.SetTokenBalance(cmd.Context(), a.keys.StealMint, owner, amount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s holds %d tokens\n", emojiCheck, owner, amount)
			return nil
		}),
	}
}

func (a *app) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <wallet>",
		Short: "Print a ledger balance.",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			owner, err := a.parseWallet(args[0])
			if err != nil {
				return err
			}
			balance, err := a.store.BalanceOf(cmd.Context(), owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", owner, sol(balance))
			return nil
		}),
	}
}

func (a *app) stealCmd() *cobra.Command {
	var oldHolder string
	cmd := &cobra.Command{
		Use:   "steal <player>",
		Short: "Take the crown for player.",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			player, err := a.parseWallet(args[0])
			if err != nil {
				return err
			}
			req := arbiter.StealRequest{Player: player}
			if oldHolder != "" {
				pk, err := a.parseWallet(oldHolder)
				if err != nil {
					return err
				}
				req.OldHolder = &pk
			}
			out, err := a.arbiter.Steal(cmd.Context(), req)
			if err != nil {
				return err
			}
			printSteal(cmd.OutOrStdout(), out)
			return nil
		}),
	}
	cmd.Flags().StringVar(&oldHolder, "old-holder", "", "holder the player expects to dethrone (default: current holder)")
	return cmd
}

func (a *app) endCmd() *cobra.Command {
	var winner, winner2, winner3 string
	cmd := &cobra.Command{
		Use:   "end",
		Short: "Settle the round. Winners default to the holder and the War podium.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			state, err := a.arbiter.State(ctx)
			if err != nil {
				return err
			}
			req := arbiter.PodiumRequest(state)
			if winner != "" {
				if req.Winner, err = a.parseWallet(winner); err != nil {
					return err
				}
			}
			for _, o := range []struct {
				flag string
				dst  **solana.PublicKey
			}{{winner2, &req.Winner2}, {winner3, &req.Winner3}} {
				if o.flag == "" {
					continue
				}
				pk, err := a.parseWallet(o.flag)
				if err != nil {
					return err
				}
				*o.dst = &pk
			}

			out, err := a.arbiter.EndRound(ctx, req)
			if err != nil {
				return err
			}
			printEnd(cmd.OutOrStdout(), out)
			return nil
		}),
	}
	cmd.Flags().StringVar(&winner, "winner", "", "first place (must be the holder)")
	cmd.Flags().StringVar(&winner2, "winner2", "", "second place")
	cmd.Flags().StringVar(&winner3, "winner3", "", "third place")
	return cmd
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restart an expired round nobody holds.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			out, err := a.arbiter.ResetRound(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Round %d reset, merged %s, jackpot %s, next round %d\n",
				emojiReset, out.Round, sol(out.MergedPending), sol(out.Jackpot), out.NextRound)
			return nil
		}),
	}
}

func (a *app) burnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "burn <lamports>",
		Short: "Spend pending beast fees on the buyback and burn.",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			lamports, err := parseLamports(args[0])
			if err != nil {
				return err
			}
			out, err := a.arbiter.Burn(cmd.Context(), lamports)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Burned %d tokens for %s, total %d\n",
				emojiFire, out.Tokens, sol(out.Lamports), out.TotalBurned)
			return nil
		}),
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the game state.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			state, err := a.arbiter.State(ctx)
			if err != nil {
				return err
			}
			vault, err := a.store.BalanceOf(ctx, state.Vault)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), state, vault)
			return nil
		}),
	}
}

func (a *app) roundsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "List closed rounds, newest first.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			records, err := a.store.Rounds(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRounds(cmd.OutOrStdout(), records)
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum rounds to list (0 for all)")
	return cmd
}
