package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// MockProvider is a scripted Provider. It is safe for use from the async
// wrapper's background goroutine.
type MockProvider struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockProvider creates a MockProvider that reports no hands.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// SetHands sets the hands returned by subsequent Detect calls.
func (m *MockProvider) SetHands(hands ...HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error returned by subsequent Detect calls. Pass nil to clear.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the configured hands or error.
func (m *MockProvider) Detect(ctx context.Context, timestampMs int64) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]HandLandmarks, len(m.hands))
	copy(out, m.hands)
	return out, nil
}

// SlicingHand returns an open right hand whose index and middle fingertips
// sit at the normalized point (x, y). Other landmarks trail below the tips
// towards the wrist.
func SlicingHand(x, y float64) HandLandmarks {
	return slicingHand(HandRight, x, y)
}

// SlicingLeftHand is SlicingHand for the left hand.
func SlicingLeftHand(x, y float64) HandLandmarks {
	return slicingHand(HandLeft, x, y)
}

func slicingHand(label string, x, y float64) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: label,
		Score:      0.95,
	}

	// Wrist and palm below the fingertips
	landmarks.Points[Wrist] = Point3D{X: x, Y: y + 0.30}
	landmarks.Points[ThumbCMC] = Point3D{X: x + 0.04, Y: y + 0.26}
	landmarks.Points[ThumbMCP] = Point3D{X: x + 0.07, Y: y + 0.22}
	landmarks.Points[ThumbIP] = Point3D{X: x + 0.09, Y: y + 0.18}
	landmarks.Points[ThumbTip] = Point3D{X: x + 0.10, Y: y + 0.15}

	// Extended index and middle fingers meeting at (x, y)
	landmarks.Points[IndexMCP] = Point3D{X: x + 0.02, Y: y + 0.18}
	landmarks.Points[IndexPIP] = Point3D{X: x + 0.015, Y: y + 0.12}
	landmarks.Points[IndexDIP] = Point3D{X: x + 0.01, Y: y + 0.06}
	landmarks.Points[IndexTip] = Point3D{X: x + 0.005, Y: y, Z: -0.02}
	landmarks.Points[MiddleMCP] = Point3D{X: x - 0.01, Y: y + 0.18}
	landmarks.Points[MiddlePIP] = Point3D{X: x - 0.01, Y: y + 0.12}
	landmarks.Points[MiddleDIP] = Point3D{X: x - 0.007, Y: y + 0.06}
	landmarks.Points[MiddleTip] = Point3D{X: x - 0.005, Y: y, Z: -0.02}

	// Ring and pinky curled
	landmarks.Points[RingMCP] = Point3D{X: x - 0.03, Y: y + 0.19}
	landmarks.Points[RingPIP] = Point3D{X: x - 0.03, Y: y + 0.16}
	landmarks.Points[RingDIP] = Point3D{X: x - 0.028, Y: y + 0.18}
	landmarks.Points[RingTip] = Point3D{X: x - 0.026, Y: y + 0.20}
	landmarks.Points[PinkyMCP] = Point3D{X: x - 0.05, Y: y + 0.20}
	landmarks.Points[PinkyPIP] = Point3D{X: x - 0.05, Y: y + 0.18}
	landmarks.Points[PinkyDIP] = Point3D{X: x - 0.048, Y: y + 0.20}
	landmarks.Points[PinkyTip] = Point3D{X: x - 0.046, Y: y + 0.22}

	return landmarks
}
