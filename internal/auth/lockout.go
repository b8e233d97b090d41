// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import "github.com/olegiv/ogate-go/internal/model"

// The lockout policy is pure decision logic over an account's failure
// counter. The thresholds live in internal/model so the store and the
// admin tooling share a single definition.

// ShouldLock reports whether an account must be locked after its failure
// counter has been incremented to failCount.
func ShouldLock(failCount int64) bool {
	return failCount >= model.LockoutThreshold
}

// IsAtRisk reports whether an unlocked account is one failure away from
// lockout.
func IsAtRisk(failCount int64, locked bool) bool {
	return failCount >= model.AtRiskThreshold && !locked
}

// RemainingAttempts returns how many failed attempts remain before lockout.
// Never negative.
func RemainingAttempts(failCount int64) int64 {
	remaining := int64(model.LockoutThreshold) - failCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
