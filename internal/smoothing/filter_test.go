package smoothing

import (
	"image"
	"testing"
)

func TestHistory_LengthBounded(t *testing.T) {
	h := NewHistory(DefaultWindow)

	for i := 0; i < 50; i++ {
		h.Update(image.Pt(i, i*2))
		if h.Len() > DefaultWindow {
			t.Fatalf("after %d updates Len() = %d, want <= %d", i+1, h.Len(), DefaultWindow)
		}
	}

	if h.Len() != DefaultWindow {
		t.Errorf("Len() = %d, want %d", h.Len(), DefaultWindow)
	}
}

func TestHistory_ConstantPoint(t *testing.T) {
	h := NewHistory(DefaultWindow)
	p := image.Pt(302, 299)

	var got image.Point
	for i := 0; i < 7; i++ {
		got = h.Update(p)
	}

	if got != p {
		t.Errorf("Update() = %v, want %v", got, p)
	}
}

func TestHistory_Update(t *testing.T) {
	tests := []struct {
		name   string
		window int
		input  []image.Point
		want   image.Point
	}{
		{
			name:   "single point",
			window: 5,
			input:  []image.Point{{10, 20}},
			want:   image.Point{10, 20},
		},
		{
			name:   "mean of two",
			window: 5,
			input:  []image.Point{{10, 20}, {20, 40}},
			want:   image.Point{15, 30},
		},
		{
			name:   "fractional mean truncates",
			window: 5,
			input:  []image.Point{{0, 0}, {1, 1}},
			want:   image.Point{0, 0},
		},
		{
			name:   "oldest evicted first",
			window: 2,
			input:  []image.Point{{100, 100}, {10, 10}, {20, 20}},
			want:   image.Point{15, 15},
		},
		{
			name:   "full window of five",
			window: 5,
			input:  []image.Point{{1000, 0}, {0, 0}, {5, 5}, {10, 10}, {15, 15}, {20, 20}},
			want:   image.Point{10, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(tt.window)

			var got image.Point
			for _, p := range tt.input {
				got = h.Update(p)
			}

			if got != tt.want {
				t.Errorf("Update() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHistory_PointsOrder(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 4; i++ {
		h.Update(image.Pt(i, i))
	}

	pts := h.Points()
	want := []image.Point{{2, 2}, {3, 3}, {4, 4}}
	if len(pts) != len(want) {
		t.Fatalf("Points() len = %d, want %d", len(pts), len(want))
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Errorf("Points()[%d] = %v, want %v", i, pts[i], want[i])
		}
	}
}

func TestNewHistory_InvalidWindow(t *testing.T) {
	for _, w := range []int{0, -1} {
		if got := NewHistory(w).Window(); got != DefaultWindow {
			t.Errorf("NewHistory(%d).Window() = %d, want %d", w, got, DefaultWindow)
		}
	}
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(DefaultWindow)
	h.Update(image.Pt(1, 1))
	h.Reset()

	if h.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", h.Len())
	}
	if got := h.Update(image.Pt(8, 8)); got != image.Pt(8, 8) {
		t.Errorf("Update() after Reset = %v, want (8,8)", got)
	}
}
