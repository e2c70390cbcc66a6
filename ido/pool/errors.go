package pool

import "errors"

// Error kinds. Every rejected call returns a *RevertError wrapping one of these,
// so callers match with errors.Is and show the reason with Error().
var (
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrPoolStopped              = errors.New("pool stopped")
	ErrPoolNotFound             = errors.New("pool not found")
	ErrPoolNotReady             = errors.New("pool not ready")
	ErrPoolEnded                = errors.New("pool ended")
	ErrInsufficientTodayDeposit = errors.New("insufficient today deposit")
	ErrNothingToWithdraw        = errors.New("nothing to withdraw")
	ErrReferrerNotDeposited     = errors.New("referrer not deposited")
	ErrAlreadyAccepted          = errors.New("already accepted")
	ErrReferralCycle            = errors.New("referral cycle")
	ErrNotAContract             = errors.New("not a contract")
	ErrInsufficientTokenBalance = errors.New("insufficient token balance")
	ErrInsufficientAllowance    = errors.New("insufficient allowance")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrExceedsAvailable         = errors.New("exceeds available exchange amount")
	ErrPriceUnavailable         = errors.New("price unavailable")
	ErrInsufficientReserve      = errors.New("insufficient reserve")
	ErrStartTooSoon             = errors.New("start time too soon")
	ErrDurationTooShort         = errors.New("duration too short")
	ErrInvalidRewardRate        = errors.New("invalid reward rate")
	ErrTokenTransferFailed      = errors.New("token transfer failed")
	ErrZeroAddress              = errors.New("zero address")
)

// RevertError is a rejected call: a kind plus the fixed reason reported to the caller.
type RevertError struct {
	Kind   error
	Reason string
}

func (e *RevertError) Error() string { return e.Reason }

func (e *RevertError) Unwrap() error { return e.Kind }

func revert(kind error, reason string) error {
	return &RevertError{Kind: kind, Reason: reason}
}

// Reasons, one per rejection site.
var (
	errUnauthorized = revert(ErrUnauthorized, "Ownable: caller is not the owner")
	errOwnerZero    = revert(ErrZeroAddress, "Ownable: new owner is the zero address")
	errStopped      = revert(ErrPoolStopped, "IDOPool::stoppable: contract has been stopped.")

	errDeployValue    = revert(ErrInvalidAmount, "IDOPool::deploy: require sending value to the pool")
	errDeployStart    = revert(ErrStartTooSoon, "IDOPool::deploy: start time is too soon")
	errDeployDuration = revert(ErrDurationTooShort, "IDOPool::deploy: duration is too short")
	errDeployEnd      = revert(ErrInvalidAmount, "IDOPool::deploy: end time overflows")
	errDeployRate     = revert(ErrInvalidRewardRate, "IDOPool::deploy: reward rate use permil")
	errDeployOracle   = revert(ErrNotAContract, "IDOPool::deploy: oracle is a non-contract.")
	errDeployFunds    = revert(ErrInsufficientFunds, "IDOPool::deploy: insufficient funds for transfer")

	errPoolNotFound = revert(ErrPoolNotFound, "IDOPool: pool does not exist.")

	errDepositValue = revert(ErrInvalidAmount, "IDOPool::deposit: require sending value to the pool")
	errDepositEnded = revert(ErrPoolEnded, "IDOPool::deposit: the pool already ended.")
	errDepositFunds = revert(ErrInsufficientFunds, "IDOPool::deposit: insufficient funds for transfer")

	errWithdrawAmount  = revert(ErrInvalidAmount, "IDOPool::withdraw: the pool is not over, amount is invalid.")
	errWithdrawToday   = revert(ErrInsufficientTodayDeposit, "IDOPool::withdraw: the amount deposited today is not enough.")
	errWithdrawNothing = revert(ErrNothingToWithdraw, "IDOPool::withdraw: nothing to withdraw.")

	errAcceptNotDeposited = revert(ErrReferrerNotDeposited, "IDOPool::accept: referrer did not deposit")
	errAcceptAccepted     = revert(ErrAlreadyAccepted, "IDOPool::accept: has been accepted invitation")
	errAcceptCycle        = revert(ErrReferralCycle, "IDOPool::accept: referrer is already downstream of the caller")

	errBuyNotReady     = revert(ErrPoolNotReady, "IDOPool::buy: the pool not ready.")
	errBuyEnded        = revert(ErrPoolEnded, "IDOPool::buy: the pool already ended.")
	errBuyNotContract  = revert(ErrNotAContract, "IDOPool::buy: call to non-contract.")
	errBuyAmount       = revert(ErrInvalidAmount, "IDOPool::buy: input amount is invalid.")
	errBuyAvailable    = revert(ErrExceedsAvailable, "IDOPool::buy: exceeds the available exchange amount")
	errBuyPrice        = revert(ErrPriceUnavailable, "IDOPool::buy: token price is unavailable")
	errBuyBalance      = revert(ErrInsufficientTokenBalance, "IDOPool::buy: token balance is insufficient")
	errBuyAllowance    = revert(ErrInsufficientAllowance, "IDOPool::buy: token allowance is insufficient")
	errBuyReserve      = revert(ErrInsufficientReserve, "IDOPool::buy: the pool reserve is insufficient")
	errBuyTokenPull    = revert(ErrTokenTransferFailed, "IDOPool::buy: token transfer failed")
	errTransferNotCtr  = revert(ErrNotAContract, "IDOPool::transfer: call to non-contract.")
	errTransferAmount  = revert(ErrInvalidAmount, "IDOPool::transfer: input amount is invalid.")
	errTransferBalance = revert(ErrInsufficientBalance, "IDOPool::transfer: token balance is insufficient")
	errTransferFailed  = revert(ErrTokenTransferFailed, "IDOPool::transfer: token transfer failed")
	errRefundAmount    = revert(ErrInvalidAmount, "IDOPool::refund: input amount is invalid.")
	errRefundBalance   = revert(ErrInsufficientBalance, "IDOPool::refund: balance is insufficient")
)
