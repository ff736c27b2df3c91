package tracker

// smoother keeps the last few raw blade points of one hand and returns a
// weighted average in which newer samples count more. With a window of K the
// i-th oldest sample weighs (i+1)/K; weights are normalized by their sum.
type smoother struct {
	window  int
	history []Position
}

func newSmoother(window int) *smoother {
	return &smoother{
		window:  window,
		history: make([]Position, 0, window),
	}
}

// add records a raw sample and returns the smoothed position.
func (s *smoother) add(p Position) Position {
	if len(s.history) >= s.window {
		copy(s.history, s.history[1:])
		s.history = s.history[:s.window-1]
	}
	s.history = append(s.history, p)

	var out Position
	var total float64
	for i, h := range s.history {
		w := float64(i+1) / float64(s.window)
		out.X += h.X * w
		out.Y += h.Y * w
		out.Z += h.Z * w
		total += w
	}
	out.X /= total
	out.Y /= total
	out.Z /= total
	return out
}

// reset forgets the history so a hand that re-enters does not streak from
// where it left.
func (s *smoother) reset() {
	s.history = s.history[:0]
}
