package game

// Split is how one steal's money is divided. Refund goes to the dethroned
// holder; the rest is taken from the new payment.
type Split struct {
	Refund  uint64
	Dev     uint64
	Beast   uint64
	Yield   uint64
	Jackpot uint64
}

// Fees is the part of the split paid out of the vault right away.
func (s Split) Fees() uint64 {
	return saturatingAdd(s.Dev, s.Beast)
}

// RunItUpSplit taxes the price increase, not the price. The old holder gets
// back exactly what they paid.
func RunItUpSplit(oldPrice, newPrice uint64) Split {
	delta := saturatingSub(newPrice, oldPrice)
	return Split{
		Refund:  oldPrice,
		Dev:     SurplusDev.OfOr(delta, 0),
		Beast:   SurplusBeast.OfOr(delta, 0),
		Yield:   SurplusYield.OfOr(delta, 0),
		Jackpot: SurplusJackpot.OfOr(delta, 0),
	}
}

// HitALickOverheadSplit takes fees off the frozen ticket. Surcharges are not
// part of it; the caller routes them to the jackpot whole.
func HitALickOverheadSplit(ticket uint64) Split {
	return Split{
		Dev:     WarDev.OfOr(ticket, 0),
		Beast:   WarBeast.OfOr(ticket, 0),
		Yield:   WarYield.OfOr(ticket, 0),
		Jackpot: WarJackpot.OfOr(ticket, 0),
	}
}

// HitALickRefund is 90% of what the holder actually paid.
func HitALickRefund(paid uint64) uint64 {
	return WarHolderRefund.OfOr(paid, 0)
}

// TimeBonus grows linearly from 1000 (1.0x) at 0s to 2000 (2.0x) at 30s.
func TimeBonus(holdSeconds uint64) uint64 {
	if holdSeconds > YieldBonusCapSecs {
		holdSeconds = YieldBonusCapSecs
	}
	return PermilleBase + holdSeconds*PermilleBase/YieldBonusCapSecs
}

// Yield is 5% of the new payment scaled by the time bonus, doubled for VIPs.
// Overflow yields nothing.
func Yield(newPayment, holdSeconds uint64, vip bool) uint64 {
	base, ok := YieldBaseRate.Of(newPayment)
	if !ok {
		return 0
	}
	raw, ok := MulDiv(base, TimeBonus(holdSeconds), PermilleBase)
	if !ok {
		return 0
	}
	if vip {
		if doubled, ok := checkedMul(raw, VIPYieldMultiplier); ok {
			return doubled
		}
	}
	return raw
}

// YieldWithCap bounds Yield by half the holder's entry and by the pool.
func YieldWithCap(pool, entry, newPayment, holdSeconds uint64, vip bool) uint64 {
	y := Yield(newPayment, holdSeconds, vip)
	y = min(y, YieldCap.OfOr(entry, 0))
	return min(y, pool)
}

// StealYield is YieldWithCap with the minimum floor, itself bounded by the
// pool. Used when a Growth holder is dethroned.
func StealYield(pool, entry, newPayment, holdSeconds uint64, vip bool) uint64 {
	return max(YieldWithCap(pool, entry, newPayment, holdSeconds, vip), min(MinYield, pool))
}

// EndTable divides a War pot between the podium, fees and the next round.
type EndTable struct {
	Mega     bool
	Winners  [MaxRecentKings]uint64
	Dev      uint64
	Beast    uint64
	Rollover uint64
}

type endRates struct {
	winners [MaxRecentKings]Permille
	dev     Permille
	beast   Permille
}

// The rollover is whatever the podium and fees leave: 750 and 600.
var (
	normalEndRates = endRates{winners: [MaxRecentKings]Permille{150, 60, 40}}
	megaEndRates   = endRates{winners: [MaxRecentKings]Permille{250, 100, 50}}
)

// IsMegaPot reports whether pot qualifies for the richer table.
func IsMegaPot(pot uint64) bool {
	return pot >= MegaPotThreshold
}

// EndPayouts computes the table for pot. Rounding dust goes to the rollover,
// so the table always adds up to pot. A share that overflows is zero and
// lands in the rollover too.
func EndPayouts(pot uint64) EndTable {
	rates := normalEndRates
	t := EndTable{Mega: IsMegaPot(pot)}
	if t.Mega {
		rates = megaEndRates
	}
	paid := uint64(0)
	for i, r := range rates.winners {
		t.Winners[i] = r.OfOr(pot, 0)
		paid += t.Winners[i]
	}
	t.Dev = rates.dev.OfOr(pot, 0)
	t.Beast = rates.beast.OfOr(pot, 0)
	t.Rollover = pot - paid - t.Dev - t.Beast
	return t
}

// Settle moves the shares of unfilled places into the rollover.
func (t EndTable) Settle(occupied int) EndTable {
	for i := max(occupied, 0); i < MaxRecentKings; i++ {
		t.Rollover = saturatingAdd(t.Rollover, t.Winners[i])
		t.Winners[i] = 0
	}
	return t
}

// Total is winners + dev + beast + rollover.
func (t EndTable) Total() uint64 {
	total := saturatingAdd(t.Dev, t.Beast)
	for _, w := range t.Winners {
		total = saturatingAdd(total, w)
	}
	return saturatingAdd(total, t.Rollover)
}
