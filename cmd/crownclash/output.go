package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fystack/crown-clash/internal/events"
	"github.com/fystack/crown-clash/internal/game"
	"github.com/fystack/crown-clash/internal/storage"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

const (
	emojiCrown    = "👑"
	emojiCheck    = "✅"
	emojiWarning  = "⚠️"
	emojiSearch   = "🔍"
	emojiProgress = "📊"
	emojiSwords   = "⚔️"
	emojiTrophy   = "🏆"
	emojiReset    = "🔄"
	emojiFire     = "🔥"
)

func sol(lamports uint64) string {
	return events.SOL(lamports).String() + " SOL"
}

func unix(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func printState(w io.Writer, s game.State, vault uint64) {
	phaseColor := colorGreen
	if s.HitALickMode {
		phaseColor = colorRed
	}
	fmt.Fprintf(w, "%s%s Round %d%s %s%s%s\n", colorBold, colorBlue, s.Round, colorReset, phaseColor, s.Phase(), colorReset)

	if s.HasKing() {
		fmt.Fprintf(w, "  %s Holder: %s%s%s since %s (vip=%v)\n",
			emojiCrown, colorYellow, s.Crown.Holder, colorReset, unix(s.Crown.Since), s.Crown.WasVIP)
	} else {
		fmt.Fprintf(w, "  %s Holder: none\n", emojiCrown)
	}
	fmt.Fprintf(w, "  %s Price: %s%s%s\n", emojiProgress, colorYellow, sol(s.CurrentPrice), colorReset)
	if s.HitALickMode {
		fmt.Fprintf(w, "  %s War ticket: %s%s%s ends %s\n", emojiSwords, colorYellow, sol(s.HitALickPrice), colorReset, unix(s.HitALickEndTime))
	}
	fmt.Fprintf(w, "  %s Jackpot: %s%s%s pending %s\n", emojiProgress, colorYellow, sol(s.JackpotBalance), colorReset, sol(s.PendingJackpot))
	fmt.Fprintf(w, "  %s Yield pool: %s\n", emojiProgress, sol(s.YieldPool))
	fmt.Fprintf(w, "  %s Vault: %s\n", emojiProgress, sol(vault))
	fmt.Fprintf(w, "  %s Round ends: %s hard end %s\n", emojiProgress, unix(s.RoundEndTime), unix(s.GrowthHardEnd))
	fmt.Fprintf(w, "  %s Growth steals: %d of %d\n", emojiProgress, s.GrowthSteals, s.MinGrowthStealsForWar)
	fmt.Fprintf(w, "  %s Total steals: %d\n", emojiProgress, s.TotalSteals)
	fmt.Fprintf(w, "  %s Beast pending: %s burned %d\n", emojiFire, sol(s.BeastSOLPending), s.TotalBurned)
	if n := s.RecentKings.Len(); n > 0 {
		fmt.Fprintf(w, "  %s Recent kings:\n", emojiTrophy)
		for i, k := range s.RecentKings.Kings() {
			fmt.Fprintf(w, "     %d. %s\n", i+1, k)
		}
	}
}

func printSteal(w io.Writer, out game.StealOutcome) {
	fmt.Fprintf(w, "%s%s %s %s took the crown%s for %s (vip=%v)\n",
		colorBold, colorGreen, emojiCrown, out.Player, colorReset, sol(out.Cost), out.VIP)
	if out.StaleHolder {
		fmt.Fprintf(w, "  %s Holder changed before the steal landed, no payout\n", emojiWarning)
	} else if !out.PaidHolder.IsZero() {
		fmt.Fprintf(w, "  %s Paid %s refund %s yield %s\n", emojiCheck, out.PaidHolder, sol(out.Refund), sol(out.Yield))
	}
	if out.EnteredWar() {
		fmt.Fprintf(w, "  %s%s War started%s\n", colorRed, emojiSwords, colorReset)
	}
}

func printEnd(w io.Writer, out game.EndOutcome) {
	fmt.Fprintf(w, "%s%s %s Round %d ended%s (%s)\n", colorBold, colorGreen, emojiTrophy, out.Round, colorReset, out.Phase)
	if out.DeadRound {
		fmt.Fprintf(w, "  %s Dead round, refund %s yield %s\n", emojiWarning, sol(out.Refund), sol(out.Yield))
	}
	fmt.Fprintf(w, "  %s Pot: %s mega=%v\n", emojiProgress, sol(out.Pot), out.Table.Mega)
	for _, p := range out.Payouts {
		fmt.Fprintf(w, "  %d. %s%s%s %s\n", p.Place, colorCyan, p.Winner, colorReset, sol(p.Amount))
	}
	fmt.Fprintf(w, "  %s Rollover: %s\n", emojiReset, sol(out.Rollover))
}

func printRounds(w io.Writer, records []storage.RoundRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no closed rounds")
		return
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s#%d%s %s %s closed %s steals=%d pot=%s next_jackpot=%s\n",
			colorBold, r.Round, colorReset, r.Kind, r.Phase, unix(r.ClosedAt), r.Steals, sol(r.Pot), sol(r.NextJackpot))
		for _, wr := range r.Winners {
			fmt.Fprintf(w, "    %d. %s %s\n", wr.Place, wr.Wallet, sol(wr.Amount))
		}
	}
}
