package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
)

// MotionGate decides whether a frame is worth running landmark detection on.
// It compares consecutive frames and stays open for a hold window after the
// last frame with enough changed pixels, so a hand held still mid-swipe keeps
// being tracked.
type MotionGate struct {
	threshold  float64
	holdMs     int64
	prevGray   gocv.Mat
	hasPrev    bool
	lastMotion int64
	seenMotion bool
	mu         sync.Mutex
}

// NewMotionGate creates a gate. threshold is the percentage of pixels that
// must change between frames; holdMs is how long the gate stays open after
// motion.
func NewMotionGate(threshold float64, holdMs int64) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		holdMs:    holdMs,
		prevGray:  gocv.NewMat(),
	}
}

// Active reports whether detection should run for the frame captured at nowMs.
// The first frame only establishes a baseline and opens the gate, so play can
// begin without waiting for movement.
func (g *MotionGate) Active(frame *gocv.Mat, nowMs int64) bool {
	moved, _ := g.Detect(frame)

	g.mu.Lock()
	defer g.mu.Unlock()

	if moved || !g.seenMotion {
		g.lastMotion = nowMs
		g.seenMotion = true
		return true
	}
	return nowMs-g.lastMotion <= g.holdMs
}

// Detect compares the frame with the previous one and returns whether the
// changed-pixel percentage exceeds the threshold, along with that percentage.
//
// Algorithm:
// 1. Convert to grayscale and blur (21x21) to suppress sensor noise
// 2. The first frame becomes the baseline
// 3. Absolute difference with the baseline, binary threshold at 25
// 4. changePercent = non-zero pixels / total pixels * 100
func (g *MotionGate) Detect(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !g.hasPrev {
		blurred.CopyTo(&g.prevGray)
		g.hasPrev = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	total := thresh.Rows() * thresh.Cols()
	if total == 0 {
		return false, 0
	}
	changePercent := float64(gocv.CountNonZero(thresh)) / float64(total) * 100.0

	blurred.CopyTo(&g.prevGray)

	return changePercent > g.threshold, changePercent
}

// Reset drops the baseline frame and the hold window.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.releasePrev()
	g.seenMotion = false
	g.lastMotion = 0
}

// Close releases the baseline frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.releasePrev()
}

func (g *MotionGate) releasePrev() {
	if !g.prevGray.Empty() {
		g.prevGray.Close()
		g.prevGray = gocv.NewMat()
	}
	g.hasPrev = false
}
