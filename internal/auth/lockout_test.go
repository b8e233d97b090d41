// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import "testing"

func TestShouldLock(t *testing.T) {
	tests := []struct {
		count int64
		want  bool
	}{
		{0, false},
		{1, false},
		{2, false},
		{3, true},
		{4, true},
	}
	for _, tt := range tests {
		if got := ShouldLock(tt.count); got != tt.want {
			t.Errorf("ShouldLock(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestIsAtRisk(t *testing.T) {
	tests := []struct {
		count  int64
		locked bool
		want   bool
	}{
		{0, false, false},
		{1, false, false},
		{2, false, true},
		{3, false, true},
		{2, true, false},
		{3, true, false},
	}
	for _, tt := range tests {
		if got := IsAtRisk(tt.count, tt.locked); got != tt.want {
			t.Errorf("IsAtRisk(%d, %v) = %v, want %v", tt.count, tt.locked, got, tt.want)
		}
	}
}

func TestRemainingAttempts(t *testing.T) {
	tests := []struct {
		count int64
		want  int64
	}{
		{0, 3},
		{1, 2},
		{2, 1},
		{3, 0},
		{5, 0},
	}
	for _, tt := range tests {
		if got := RemainingAttempts(tt.count); got != tt.want {
			t.Errorf("RemainingAttempts(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}
