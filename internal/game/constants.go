package game

import "math"

// LamportsPerSOL is the number of base units in one whole SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// Round start
const (
	StartPrice uint64 = 20_000_000 // 0.02 SOL
)

// Growth ("Run It Up") phase
const (
	RunItUpRate     uint64 = 112 // price x1.12 per steal, out of 100
	MaxTimerSecs    int64  = 600 // growth timer never extends beyond now+10m
	TimerAddSecs    int64  = 30  // added to the growth timer on every steal
	GrowthHardSecs  int64  = 180 // informational hard end of the growth phase
	WarPriceTrigger uint64 = 60  // price >= 60% of jackpot flips to War, out of 100
)

// Growth split of profit_delta, out of 1000.
const (
	SurplusDev     Permille = 60
	SurplusBeast   Permille = 5
	SurplusYield   Permille = 200
	SurplusJackpot Permille = 735
)

// Dynamic War threshold.
const (
	MinGrowthStealsClamp uint16 = 35
	MaxGrowthStealsClamp uint16 = 100
	GrowthStealsBase     uint64 = 35
	GrowthStealsPerSOL   uint64 = 15
)

// War ("Hit A Lick") phase
const (
	WarPotShare      Permille = 30            // ticket = 3% of jackpot
	WarPriceMin      uint64   = 50_000_000    // 0.05 SOL
	WarPriceMax      uint64   = 1_500_000_000 // 1.50 SOL
	WarTimerSecs     int64    = 10
	MinWarHoldSecs   int64    = 3
	WarCooldownSecs  uint64   = 2
	WarSurcharge     Permille = 120 // non-VIP surcharge on the ticket
	WarHolderRefund  Permille = 900 // dethroned holder gets 90% of what they paid
	WarDev           Permille = 50
	WarBeast         Permille = 0
	WarYield         Permille = 0
	WarJackpot       Permille = 50
	MegaPotThreshold uint64   = 50_000_000_000 // 50 SOL
)

// Yield, Growth phase only.
const (
	YieldBaseRate      Permille = 50 // 5% of the new payment
	YieldBonusCapSecs  uint64   = 30
	YieldCap           Permille = 500 // max 50% of the holder's entry
	MinYield           uint64   = 10_000
	VIPYieldMultiplier uint64   = 2
)

// VIP and account rules.
const (
	VIPTokenRequirement uint64 = 1_000_000_000_000 // 1,000 tokens with 9 decimals
	RentExemptMin       uint64 = 890_880
	BurnTokensPerSOL    uint64 = 100_000_000_000_000 // mock swap rate, token base units per SOL
)

const maxAmount = math.MaxUint64
