package common

const (
	BaseWidth  = 480
	BaseHeight = 720

	// PixelsPerUnit maps world units to screen pixels.
	PixelsPerUnit = 16.0

	TicksPerSecond = 60
	FixedDelta     = 1.0 / TicksPerSecond
)
