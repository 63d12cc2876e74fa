package game

// MinGrowthStealsForWar is 35 plus 15 steals per whole SOL of jackpot,
// clamped to [35, 100]. Bigger pots need a longer Growth before War.
func MinGrowthStealsForWar(jackpot uint64) uint16 {
	extra := saturatingMul(jackpot, GrowthStealsPerSOL) / LamportsPerSOL
	total := saturatingAdd(GrowthStealsBase, extra)
	switch {
	case total < uint64(MinGrowthStealsClamp):
		return MinGrowthStealsClamp
	case total > uint64(MaxGrowthStealsClamp):
		return MaxGrowthStealsClamp
	default:
		return uint16(total)
	}
}

// WarPrice is 3% of the jackpot, clamped to [0.05, 1.5] SOL. An overflowing
// jackpot clamps to the ceiling.
func WarPrice(jackpot uint64) uint64 {
	raw := WarPotShare.OfOr(jackpot, maxAmount)
	switch {
	case raw < WarPriceMin:
		return WarPriceMin
	case raw > WarPriceMax:
		return WarPriceMax
	default:
		return raw
	}
}

// WarTrigger reports which clause of the War rule fired.
type WarTrigger struct {
	Steals bool
	Price  bool
}

func (t WarTrigger) Any() bool {
	return t.Steals || t.Price
}

// WarTriggers evaluates the War rule against s. The price clause needs a
// non-empty jackpot and never fires when its threshold overflows.
func WarTriggers(s State) WarTrigger {
	if s.HitALickMode {
		return WarTrigger{}
	}
	t := WarTrigger{Steals: s.GrowthSteals >= s.MinGrowthStealsForWar}
	if s.JackpotBalance > 0 {
		if threshold, ok := MulDiv(s.JackpotBalance, WarPriceTrigger, 100); ok {
			t.Price = s.CurrentPrice >= threshold
		}
	}
	return t
}

func ShouldEnterWar(s State) bool {
	return WarTriggers(s).Any()
}

// EnterWar freezes the price at the War ticket, starts the countdown and
// clears the podium.
func EnterWar(s State, now int64) State {
	s.HitALickMode = true
	s.HitALickPrice = WarPrice(s.JackpotBalance)
	s.CurrentPrice = s.HitALickPrice
	s.HitALickEndTime = now + WarTimerSecs
	s.RecentKings = RecentKings{}
	return s
}
