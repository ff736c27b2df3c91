package tracker

// Trail is a bounded, time-decaying sequence of blade points for one hand.
// Points are kept in append order, oldest first.
type Trail struct {
	points      []TrailPoint
	maxLength   int
	retentionMs int64
}

// NewTrail creates a trail holding at most maxLength points, each for at most
// retentionMs.
func NewTrail(maxLength int, retentionMs int64) *Trail {
	return &Trail{
		points:      make([]TrailPoint, 0, maxLength),
		maxLength:   maxLength,
		retentionMs: retentionMs,
	}
}

// Append adds a point, dropping the oldest when the trail is full.
func (t *Trail) Append(p TrailPoint) {
	if len(t.points) >= t.maxLength {
		copy(t.points, t.points[1:])
		t.points = t.points[:t.maxLength-1]
	}
	t.points = append(t.points, p)
}

// Prune drops every point older than the retention window relative to nowMs.
func (t *Trail) Prune(nowMs int64) {
	cut := 0
	for cut < len(t.points) && nowMs-t.points[cut].TimestampMs > t.retentionMs {
		cut++
	}
	if cut == 0 {
		return
	}
	n := copy(t.points, t.points[cut:])
	t.points = t.points[:n]
}

// Len returns the number of retained points.
func (t *Trail) Len() int {
	return len(t.points)
}

// Points returns a copy of the retained points.
func (t *Trail) Points() []TrailPoint {
	out := make([]TrailPoint, len(t.points))
	copy(out, t.points)
	return out
}

// Path converts the trail into screen points, or nil with fewer than two.
func (t *Trail) Path() []Point {
	if len(t.points) < 2 {
		return nil
	}
	out := make([]Point, len(t.points))
	for i, p := range t.points {
		out[i] = Point{X: p.X, Y: p.Y}
	}
	return out
}

// Clear empties the trail.
func (t *Trail) Clear() {
	t.points = t.points[:0]
}
