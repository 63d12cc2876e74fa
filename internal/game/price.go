package game

// IsVIP reports whether a token balance clears the VIP requirement.
func IsVIP(tokenBalance uint64) bool {
	return tokenBalance >= VIPTokenRequirement
}

// NextGrowthPrice is price × 1.12, truncated. It saturates instead of
// overflowing.
func NextGrowthPrice(price uint64) uint64 {
	return MulDivOr(price, RunItUpRate, 100, maxAmount)
}

// WarEntryCost is the ticket plus a 12% surcharge. VIPs pay the bare ticket.
func WarEntryCost(ticket uint64, vip bool) uint64 {
	if vip {
		return ticket
	}
	return saturatingAdd(ticket, WarSurcharge.OfOr(ticket, 0))
}

// EntryCost is what a player with tokenBalance pays to steal in state s.
func EntryCost(s State, tokenBalance uint64) uint64 {
	if s.HitALickMode {
		return WarEntryCost(s.HitALickPrice, IsVIP(tokenBalance))
	}
	return NextGrowthPrice(s.CurrentPrice)
}

// VerifyTokenMint rejects a token account that is not for the game mint.
func VerifyTokenMint(got, want Identity) error {
	if got != want {
		return ErrInvalidMint
	}
	return nil
}
