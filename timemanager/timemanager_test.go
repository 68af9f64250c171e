package timemanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllocateNeverExceedsUsableTime(t *testing.T) {
	m := NewManager()
	soft, hard := m.Allocate(Limits{TimeLeft: 10 * time.Second, Ply: 40})

	require.LessOrEqual(t, soft, 9*time.Second)
	require.LessOrEqual(t, hard, 9*time.Second)
	require.GreaterOrEqual(t, hard, soft)
}

func TestAllocatePeaksNearPeakPly(t *testing.T) {
	m := NewManager(WithPeakPly(40), WithSpread(10))

	soft, _ := m.Allocate(Limits{TimeLeft: time.Minute, Ply: 40, MovesToGo: 30})
	opening, _ := m.Allocate(Limits{TimeLeft: time.Minute, Ply: 2, MovesToGo: 30})
	endgame, _ := m.Allocate(Limits{TimeLeft: time.Minute, Ply: 120, MovesToGo: 30})

	require.Greater(t, soft, opening, "allocation should be largest near the peak ply")
	require.Greater(t, soft, endgame, "allocation should be largest near the peak ply")
}

func TestAllocateAddsIncrement(t *testing.T) {
	m := NewManager()
	withoutInc, _ := m.Allocate(Limits{TimeLeft: time.Minute, Ply: 40, MovesToGo: 20})
	withInc, _ := m.Allocate(Limits{TimeLeft: time.Minute, Ply: 40, MovesToGo: 20, Increment: 2 * time.Second})

	require.Greater(t, withInc, withoutInc)
}

func TestAllocateNeverNegative(t *testing.T) {
	m := NewManager(WithSafetyMargin(5 * time.Second))
	soft, hard := m.Allocate(Limits{TimeLeft: time.Second, Ply: 40})

	require.GreaterOrEqual(t, soft, time.Duration(0))
	require.GreaterOrEqual(t, hard, time.Duration(0))
}

func TestHardLimitMultiplierScalesHardCap(t *testing.T) {
	m1 := NewManager(WithHardLimitMultiplier(2))
	m2 := NewManager(WithHardLimitMultiplier(5))

	_, hard1 := m1.Allocate(Limits{TimeLeft: time.Hour, Ply: 40, MovesToGo: 40})
	_, hard2 := m2.Allocate(Limits{TimeLeft: time.Hour, Ply: 40, MovesToGo: 40})

	require.Greater(t, hard2, hard1)
}
