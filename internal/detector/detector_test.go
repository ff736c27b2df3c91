package detector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

func TestHandLandmarks_Centroid(t *testing.T) {
	t.Run("averages selected fingertips", func(t *testing.T) {
		hand := HandLandmarks{}
		hand.Points[IndexTip] = Point3D{X: 0.2, Y: 0.4, Z: -0.1}
		hand.Points[MiddleTip] = Point3D{X: 0.4, Y: 0.6, Z: 0.1}

		c, ok := hand.Centroid([]int{IndexTip, MiddleTip})
		if !ok {
			t.Fatal("expected centroid to be valid")
		}
		if math.Abs(c.X-0.3) > epsilon || math.Abs(c.Y-0.5) > epsilon || math.Abs(c.Z) > epsilon {
			t.Errorf("expected (0.3, 0.5, 0), got %+v", c)
		}
	})

	t.Run("skips out of range indices", func(t *testing.T) {
		hand := HandLandmarks{}
		hand.Points[IndexTip] = Point3D{X: 0.2, Y: 0.4}

		c, ok := hand.Centroid([]int{IndexTip, -1, NumLandmarks})
		if !ok {
			t.Fatal("expected centroid to be valid")
		}
		if c.X != 0.2 || c.Y != 0.4 {
			t.Errorf("expected (0.2, 0.4), got %+v", c)
		}
	})

	t.Run("no usable indices", func(t *testing.T) {
		hand := HandLandmarks{}
		if _, ok := hand.Centroid(nil); ok {
			t.Error("expected ok=false for empty index set")
		}
	})

	t.Run("rejects NaN landmarks", func(t *testing.T) {
		hand := HandLandmarks{}
		hand.Points[IndexTip] = Point3D{X: math.NaN(), Y: 0.4}
		if _, ok := hand.Centroid([]int{IndexTip}); ok {
			t.Error("expected ok=false for NaN input")
		}
	})

	t.Run("nil hand", func(t *testing.T) {
		var hand *HandLandmarks
		if _, ok := hand.Centroid([]int{IndexTip}); ok {
			t.Error("expected ok=false for nil hand")
		}
	})
}

func TestHandLandmarks_KnownHandedness(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{HandLeft, true},
		{HandRight, true},
		{"", false},
		{"left", false},
	}
	for _, tt := range tests {
		h := HandLandmarks{Handedness: tt.label}
		if got := h.KnownHandedness(); got != tt.want {
			t.Errorf("KnownHandedness(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{SlicingHand(0.5, 0.5), SlicingLeftHand(0.2, 0.3)})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestSlicingHand(t *testing.T) {
	hand := SlicingHand(0.25, 0.75)

	if hand.Handedness != HandRight {
		t.Errorf("expected handedness Right, got %s", hand.Handedness)
	}

	c, ok := hand.Centroid([]int{IndexTip, MiddleTip})
	if !ok {
		t.Fatal("expected valid fingertip centroid")
	}
	if math.Abs(c.X-0.25) > epsilon || math.Abs(c.Y-0.75) > epsilon {
		t.Errorf("fingertip centroid = (%f, %f), want (0.25, 0.75)", c.X, c.Y)
	}

	if hand.Points[IndexTip].Y >= hand.Points[IndexMCP].Y {
		t.Error("index finger should be extended upward")
	}

	if SlicingLeftHand(0.1, 0.1).Handedness != HandLeft {
		t.Error("expected left hand fixture")
	}
}

func TestDecodeHands(t *testing.T) {
	t.Run("parses full skeletons", func(t *testing.T) {
		line := []byte(`{"hands":[{"handedness":"Left","score":0.8,"points":[` + points(NumLandmarks) + `]}]}`)

		hands, err := decodeHands(line)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != HandLeft || hands[0].Score != 0.8 {
			t.Errorf("unexpected hand header: %+v", hands[0])
		}
		if hands[0].Points[PinkyTip].X != 0.5 {
			t.Errorf("expected pinky tip x 0.5, got %f", hands[0].Points[PinkyTip].X)
		}
	})

	t.Run("drops partial skeletons", func(t *testing.T) {
		line := []byte(`{"hands":[{"handedness":"Right","score":0.9,"points":[` + points(5) + `]}]}`)

		hands, err := decodeHands(line)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected partial hand to be dropped, got %d", len(hands))
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := decodeHands([]byte(`{"hands":`)); err == nil {
			t.Error("expected parse error")
		}
	})
}

func points(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += `{"x":0.5,"y":0.5,"z":0}`
	}
	return s
}

func TestStreamProvider(t *testing.T) {
	now := time.Unix(100, 0)
	p := NewStreamProvider(200 * time.Millisecond)
	p.now = func() time.Time { return now }

	ctx := context.Background()

	hands, err := p.Detect(ctx, 0)
	if err != nil || hands != nil {
		t.Fatalf("expected no hands before first push, got %v, %v", hands, err)
	}

	p.Push([]HandLandmarks{SlicingHand(0.5, 0.5)})

	hands, _ = p.Detect(ctx, 0)
	if len(hands) != 1 {
		t.Fatalf("expected 1 hand after push, got %d", len(hands))
	}

	now = now.Add(150 * time.Millisecond)
	hands, _ = p.Detect(ctx, 0)
	if len(hands) != 1 {
		t.Errorf("expected push to still be current, got %d hands", len(hands))
	}

	now = now.Add(100 * time.Millisecond)
	hands, _ = p.Detect(ctx, 0)
	if hands != nil {
		t.Errorf("expected stale push to be dropped, got %d hands", len(hands))
	}
}

// blockingProvider releases one detection per value sent on release.
type blockingProvider struct {
	release chan []HandLandmarks
}

func (b *blockingProvider) Detect(ctx context.Context, timestampMs int64) ([]HandLandmarks, error) {
	return <-b.release, nil
}

func TestAsyncProvider(t *testing.T) {
	inner := &blockingProvider{release: make(chan []HandLandmarks)}
	p := NewAsyncProvider(inner)
	ctx := context.Background()

	// First call starts a detection and has nothing to report yet.
	if _, err := p.Detect(ctx, 0); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}

	// Calls while the detection is still running never block.
	for i := 0; i < 3; i++ {
		if _, err := p.Detect(ctx, int64(i)); !errors.Is(err, ErrPending) {
			t.Fatalf("call %d: expected ErrPending, got %v", i, err)
		}
	}

	inner.release <- []HandLandmarks{SlicingHand(0.5, 0.5)}

	deadline := time.Now().Add(2 * time.Second)
	for {
		hands, err := p.Detect(ctx, 10)
		if err == nil {
			if len(hands) != 1 {
				t.Fatalf("expected 1 hand, got %d", len(hands))
			}
			break
		}
		if !errors.Is(err, ErrPending) {
			t.Fatalf("unexpected error: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("async detection never completed")
		}
		time.Sleep(time.Millisecond)
	}

	// The successful collect started the next detection; unblock it so the
	// goroutine exits.
	inner.release <- nil
}

func TestAsyncProvider_PropagatesInnerError(t *testing.T) {
	wantErr := errors.New("model crashed")
	mock := NewMockProvider()
	mock.SetError(wantErr)
	p := NewAsyncProvider(mock)
	ctx := context.Background()

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := p.Detect(ctx, 0)
		if errors.Is(err, wantErr) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected inner error to surface, last err %v", err)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestProviderFunc(t *testing.T) {
	var got int64
	var p Provider = ProviderFunc(func(ctx context.Context, ts int64) ([]HandLandmarks, error) {
		got = ts
		return nil, nil
	})
	p.Detect(context.Background(), 42)
	if got != 42 {
		t.Errorf("expected timestamp 42, got %d", got)
	}
}
