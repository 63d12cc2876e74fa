package game

import "fmt"

// Error is a domain error kind. Every kind aborts the operation that raised it
// before anything is committed.
type Error struct {
	Code uint32
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("crown clash error %d: %s", e.Code, e.Msg)
}

// Codes start at 6000, the first custom error code of an Anchor program.
var (
	ErrInvalidMint             = &Error{6000, "invalid token mint"}
	ErrArithmeticOverflow      = &Error{6001, "integer overflow"}
	ErrRoundStillActive        = &Error{6002, "round is settleable, call end_round"}
	ErrRoundNotYetOver         = &Error{6003, "round has not ended yet"}
	ErrInsufficientFunds       = &Error{6004, "insufficient funds to steal"}
	ErrNoCurrentHolder         = &Error{6005, "no holder to pay out"}
	ErrHolderExists            = &Error{6006, "round has a holder, use end_round instead"}
	ErrInvalidWinnerIdentity   = &Error{6007, "winner account does not match the recorded kings"}
	ErrHoldTooShort            = &Error{6008, "holder must keep the crown for 3 seconds to win"}
	ErrRateLimited             = &Error{6009, "must wait before stealing again"}
	ErrInsufficientPoolBalance = &Error{6010, "vault has insufficient balance for payout"}
	ErrInvalidAccount          = &Error{6011, "invalid account provided"}
	ErrInvalidOperand          = &Error{6012, "invalid operand"}
	ErrWalletNotRentExempt     = &Error{6013, "dev or beast wallet must hold the rent-exempt minimum"}
	ErrSeasonNotStarted        = &Error{6014, "season has not started yet"}
)

var errorsByCode = map[uint32]*Error{}

func init() {
	for _, e := range []*Error{
		ErrInvalidMint, ErrArithmeticOverflow, ErrRoundStillActive, ErrRoundNotYetOver,
		ErrInsufficientFunds, ErrNoCurrentHolder, ErrHolderExists, ErrInvalidWinnerIdentity,
		ErrHoldTooShort, ErrRateLimited, ErrInsufficientPoolBalance, ErrInvalidAccount,
		ErrInvalidOperand, ErrWalletNotRentExempt, ErrSeasonNotStarted,
	} {
		errorsByCode[e.Code] = e
	}
}

// ErrorFromCode returns the error kind for a numeric code, or nil.
func ErrorFromCode(code uint32) *Error {
	return errorsByCode[code]
}
