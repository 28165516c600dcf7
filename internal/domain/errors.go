package domain

import "errors"

var (
	// ErrService indicates the AI planning pipeline failed (network,
	// timeout, malformed or schema-violating output).
	ErrService = errors.New("planning service error")

	// ErrStore indicates a store read, write, or subscription failed.
	ErrStore = errors.New("store error")

	// ErrNoPlan indicates an operation needs today's plan and none exists.
	ErrNoPlan = errors.New("no plan for today")

	// ErrTaskIndex indicates a task position outside the plan.
	ErrTaskIndex = errors.New("task index out of range")
)
