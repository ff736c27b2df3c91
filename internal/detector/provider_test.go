package detector

import (
	"context"
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/slicecam/internal/capture"
)

func TestCameraProvider_MotionGate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer black.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&black}, true)
	if err := cam.Open(); err != nil {
		t.Fatal(err)
	}
	defer cam.Close()

	gate := capture.NewMotionGate(1.0, 500)
	defer gate.Close()

	det := NewMockDetector()
	det.SetHands([]HandLandmarks{SlicingHand(0.5, 0.5)})
	p := NewCameraProvider(cam, det, gate)
	ctx := context.Background()

	hands, err := p.Detect(ctx, 0)
	if err != nil || len(hands) != 1 {
		t.Fatalf("first frame should run detection, got %d hands, err %v", len(hands), err)
	}

	hands, err = p.Detect(ctx, 400)
	if err != nil || len(hands) != 1 {
		t.Fatalf("detection should run inside the hold window, got %d hands, err %v", len(hands), err)
	}

	hands, err = p.Detect(ctx, 1000)
	if !errors.Is(err, ErrNoMotion) {
		t.Fatalf("expected ErrNoMotion once the gate closes, got %v", err)
	}
	if hands != nil {
		t.Errorf("gated detection should return no hands, got %d", len(hands))
	}
}

func TestCameraProvider_ReadError(t *testing.T) {
	cam := capture.NewMockCamera(nil, false)
	p := NewCameraProvider(cam, NewMockDetector(), nil)

	if _, err := p.Detect(context.Background(), 0); !errors.Is(err, capture.ErrCameraNotOpen) {
		t.Errorf("expected ErrCameraNotOpen, got %v", err)
	}
}
