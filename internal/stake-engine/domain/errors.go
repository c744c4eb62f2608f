package domain

import "errors"

// Erros de regra de negócio: nenhum estado é mutado quando retornados.
// Pré-checagens detectam cedo; as constraints do banco são a autoridade final.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEventNotStakeable   = errors.New("event not stakeable")
	ErrDuplicateStake      = errors.New("active stake already exists for user and event")
	ErrTooLateToCancel     = errors.New("too late to cancel stake")
	ErrAlreadyDecided      = errors.New("application already decided")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrPoolNotFunded       = errors.New("no completed pool injection for event")
	ErrDuplicateResult     = errors.New("match result already recorded")
	ErrEventNotActive      = errors.New("event not active")
	ErrEventNotCompleted   = errors.New("event not completed")
	ErrPoolUnderfunded     = errors.New("pool underfunded for computed rewards")

	// Transiente: o chamador deve repetir a operação inteira com backoff.
	ErrConcurrencyConflict = errors.New("concurrency conflict, retry")
)
