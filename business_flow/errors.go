// Package businessflow contains the use cases of the pricing system: catalog mutations, record recalculation and change cascades
package businessflow

import (
	"errors"
	"fmt"

	"github.com/amirphl/Kusanagi/pricing"
)

// Business flow error constants
var (
	// Lookup errors
	ErrPriceRecordNotFound  = errors.New("price record not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrChannelNotFound      = errors.New("channel not found")
	ErrChannelGroupNotFound = errors.New("channel group not found")
	ErrFreightTableNotFound = errors.New("freight table not found")
	ErrFeeTableNotFound     = errors.New("fee table not found")

	// Parameter errors
	ErrPercentageOutOfRange   = errors.New("percentage must be within [0, 100)")
	ErrPercentageSumTooHigh   = errors.New("sum of percentages must be below 100")
	ErrPromoBelowMinDiscount  = errors.New("promo discount must not be below minimum discount")
	ErrFreightTableRequired   = errors.New("freight table is required in table freight mode")
	ErrManualPromoBelowMin    = errors.New("manual promo price must not be below manual minimum price")
	ErrDimensionNotPositive   = errors.New("product dimensions and weight must be positive")
	ErrCostReferenceCycle     = pricing.ErrCostReferenceCycle
	ErrSellerRatingOutOfRange = errors.New("seller rating must be between 1 and 5")
	ErrInvalidChangeKind      = errors.New("invalid change kind")
	ErrInvalidHistoryMode     = errors.New("invalid history mode")

	// Catalog errors
	ErrDefaultGroupUndeletable = errors.New("default channel group cannot be deleted")
	ErrGroupHasChannels        = errors.New("channel group still has channels")
	ErrSKUAlreadyExists        = errors.New("sku already exists")
	ErrReferenceChannelMissing = errors.New("reference channel is required for reference cost strategy")

	// Concurrency errors
	ErrRecordLocked = errors.New("price record is locked by another recalculation")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// constraintErrors maps engine validation constraints to flow sentinels
var constraintErrors = map[string]error{
	pricing.ConstraintPercentageRange:      ErrPercentageOutOfRange,
	pricing.ConstraintPercentageSum:        ErrPercentageSumTooHigh,
	pricing.ConstraintPromoBelowMin:        ErrPromoBelowMinDiscount,
	pricing.ConstraintFreightTableRequired: ErrFreightTableRequired,
	pricing.ConstraintManualPromoBelowMin:  ErrManualPromoBelowMin,
	pricing.ConstraintDimensionNotPositive: ErrDimensionNotPositive,
	pricing.ConstraintCostReferenceCycle:   ErrCostReferenceCycle,
	pricing.ConstraintUnknownGroup:         ErrChannelGroupNotFound,
	pricing.ConstraintSellerRatingRange:    ErrSellerRatingOutOfRange,
}

// wrapValidation turns an engine validation error into a BusinessError
// wrapping the matching sentinel. Other errors pass through unchanged.
func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	verr, ok := pricing.IsValidationError(err)
	if !ok {
		return err
	}
	sentinel, known := constraintErrors[verr.Constraint]
	if !known {
		return NewBusinessError("PRICING_VALIDATION_FAILED", verr.Message, err)
	}
	return NewBusinessError("PRICING_VALIDATION_FAILED", verr.Message, fmt.Errorf("%w: %w", sentinel, err))
}

func IsPriceRecordNotFound(err error) bool {
	return errors.Is(err, ErrPriceRecordNotFound)
}

func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

func IsChannelNotFound(err error) bool {
	return errors.Is(err, ErrChannelNotFound)
}

func IsChannelGroupNotFound(err error) bool {
	return errors.Is(err, ErrChannelGroupNotFound)
}

func IsFreightTableNotFound(err error) bool {
	return errors.Is(err, ErrFreightTableNotFound)
}

func IsFeeTableNotFound(err error) bool {
	return errors.Is(err, ErrFeeTableNotFound)
}

func IsPercentageSumTooHigh(err error) bool {
	return errors.Is(err, ErrPercentageSumTooHigh)
}

func IsCostReferenceCycle(err error) bool {
	return errors.Is(err, ErrCostReferenceCycle)
}

func IsDefaultGroupUndeletable(err error) bool {
	return errors.Is(err, ErrDefaultGroupUndeletable)
}

func IsRecordLocked(err error) bool {
	return errors.Is(err, ErrRecordLocked)
}

// IsValidationFailure reports whether err stems from a pricing invariant violation
func IsValidationFailure(err error) bool {
	_, ok := pricing.IsValidationError(err)
	return ok
}

// IsNotFound reports whether err is any lookup miss
func IsNotFound(err error) bool {
	return IsPriceRecordNotFound(err) || IsProductNotFound(err) || IsChannelNotFound(err) ||
		IsChannelGroupNotFound(err) || IsFreightTableNotFound(err) || IsFeeTableNotFound(err)
}
