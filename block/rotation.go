package block

import (
	"math"

	"github.com/milk9111/dreamtower/common"
)

// snapAngle returns the detent nearest to deg in [0,360) when deg already
// sits exactly on one.
func snapAngle(deg float64) (float64, bool) {
	nearest, dist := nearestDetent(deg)
	if dist != 0 {
		return 0, false
	}
	return nearest, true
}

// nearestDetent returns the closest of 0, 90, 180, 270 and 360 to deg,
// folded back into [0,360), together with its distance.
func nearestDetent(deg float64) (float64, float64) {
	nearest := math.Round(deg/90) * 90
	return common.NormalizeDegrees(nearest), math.Abs(deg - nearest)
}

// holdReady accumulates how long a rotate input has been held and reports
// whether it may rotate this tick. Releasing resets the hold.
func holdReady(held *float64, pressed bool, dt, required float64) bool {
	if !pressed {
		*held = 0
		return false
	}
	*held += dt
	return *held >= required
}

func (b *Block) rotate(dt float64, in Input) {
	cw := holdReady(&b.holdCW, in.RotateCW, dt, b.tuning.HoldTimeRequired)
	ccw := holdReady(&b.holdCCW, in.RotateCCW, dt, b.tuning.HoldTimeRequired)

	if b.snap.paused {
		b.snap.pauseTimer -= dt
		if b.snap.pauseTimer > 1e-9 {
			return
		}
		b.snap.paused = false
		b.snap.pauseTimer = 0
	}

	dir := 0.0
	if cw {
		dir--
	}
	if ccw {
		dir++
	}
	if dir == 0 {
		return
	}

	b.rotation = common.NormalizeDegrees(b.rotation + dir*b.tuning.RotationSpeed*dt)
	b.body.SetAngle(b.rotation)
	b.trySnap()
}

// trySnap aligns the block to a detent it has just rotated into.
func (b *Block) trySnap() bool {
	angle, dist := nearestDetent(b.rotation)
	if dist > b.tuning.SnapThreshold {
		return false
	}
	if b.snap.hasLast && angle == b.snap.lastAngle {
		return false
	}
	b.rotation = angle
	b.body.SetAngle(angle)
	b.snap.paused = b.tuning.SnapPauseTime > 0
	b.snap.pauseTimer = b.tuning.SnapPauseTime
	b.snap.lastAngle = angle
	b.snap.hasLast = true
	return true
}
