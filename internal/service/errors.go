package service

import "errors"

var (
	ErrValidation      = errors.New("validation")       // 400
	ErrEmptyOrder      = errors.New("empty order")      // 400
	ErrNotFound        = errors.New("not found")        // 404
	ErrConflict        = errors.New("conflict")         // 409
	ErrProtectedTable  = errors.New("protected table")  // 403
	ErrOutOfRange      = errors.New("out of range")     // 403
	ErrNoRestaurant    = errors.New("restaurant not onboarded")
	ErrOrderCreation   = errors.New("order creation failed")
	ErrOrderCompletion = errors.New("order completion failed")
)
