package database

import (
	"errors"
	"fmt"
)

// Set of error variables for the consensus rules. Callers use errors.Is to
// tell the rejections apart.
var (
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidProofOfWork  = errors.New("invalid proof of work")
	ErrChainLinkage        = errors.New("chain linkage violation")
	ErrInvalidConstruction = errors.New("invalid construction")
	ErrNotFound            = errors.New("block not found")
)

// Set of construction errors. Each wraps ErrInvalidConstruction.
var (
	ErrNegativeAmount = fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidConstruction)
	ErrAlreadySigned  = fmt.Errorf("%w: transaction is already signed", ErrInvalidConstruction)
	ErrAlreadyMined   = fmt.Errorf("%w: block is already mined", ErrInvalidConstruction)
)
