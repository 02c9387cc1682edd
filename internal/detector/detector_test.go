package detector

import (
	"errors"
	"testing"
)

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

		expectedHands := []HandLandmarks{
			PinchLandmarks(0.5, 0.5),
			OpenPalmLandmarks(),
		}
		mock.SetHands(expectedHands)

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

	t.Run("Close returns nil", func(t *testing.T) {
		mock := NewMockDetector()

		err := mock.Close()

		if err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("expected Closed() to be true after Close")
		}
	})

	t.Run("counts calls", func(t *testing.T) {
		mock := NewMockDetector()
		mock.Detect(nil)
		mock.Detect(nil)

		if mock.Calls() != 2 {
			t.Errorf("expected 2 calls, got %d", mock.Calls())
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestOpenPalmLandmarks(t *testing.T) {
	landmarks := OpenPalmLandmarks()

	t.Run("has correct handedness and score", func(t *testing.T) {
		if landmarks.Handedness != "Right" {
			t.Errorf("expected handedness Right, got %s", landmarks.Handedness)
		}
		if landmarks.Score < 0.9 {
			t.Errorf("expected score >= 0.9, got %f", landmarks.Score)
		}
	})

	t.Run("all fingers are extended", func(t *testing.T) {
		// For extended fingers, the tip should be significantly above (lower Y) the MCP
		minExtension := 0.2 // minimum expected extension

		// Index finger
		indexExtension := landmarks.Points[IndexMCP].Y - landmarks.Points[IndexTip].Y
		if indexExtension < minExtension {
			t.Errorf("index finger not extended enough (extension: %f), expected >= %f", indexExtension, minExtension)
		}

		// Middle finger
		middleExtension := landmarks.Points[MiddleMCP].Y - landmarks.Points[MiddleTip].Y
		if middleExtension < minExtension {
			t.Errorf("middle finger not extended enough (extension: %f), expected >= %f", middleExtension, minExtension)
		}

		// Ring finger
		ringExtension := landmarks.Points[RingMCP].Y - landmarks.Points[RingTip].Y
		if ringExtension < minExtension {
			t.Errorf("ring finger not extended enough (extension: %f), expected >= %f", ringExtension, minExtension)
		}

		// Pinky finger
		pinkyExtension := landmarks.Points[PinkyMCP].Y - landmarks.Points[PinkyTip].Y
		if pinkyExtension < minExtension {
			t.Errorf("pinky finger not extended enough (extension: %f), expected >= %f", pinkyExtension, minExtension)
		}
	})

	t.Run("thumb is extended to the side", func(t *testing.T) {
		// Thumb should be extended away from the palm (higher X for right hand)
		if landmarks.Points[ThumbTip].X <= landmarks.Points[ThumbMCP].X {
			t.Error("thumb tip should be to the right of thumb MCP (extended outward)")
		}
	})

	t.Run("fingers are properly ordered left to right", func(t *testing.T) {
		// For a right hand palm facing forward, fingers should be ordered
		// from left to right: pinky, ring, middle, index, thumb
		if landmarks.Points[PinkyMCP].X >= landmarks.Points[RingMCP].X {
			t.Error("pinky should be to the left of ring finger")
		}
		if landmarks.Points[RingMCP].X >= landmarks.Points[MiddleMCP].X {
			t.Error("ring should be to the left of middle finger")
		}
		if landmarks.Points[MiddleMCP].X >= landmarks.Points[IndexMCP].X {
			t.Error("middle should be to the left of index finger")
		}
	})
}

func TestHandLandmarks_Pixel(t *testing.T) {
	tests := []struct {
		name          string
		x, y          float64
		width, height int
		wantX, wantY  int
	}{
		{name: "origin", x: 0, y: 0, width: 640, height: 480, wantX: 0, wantY: 0},
		{name: "center", x: 0.5, y: 0.5, width: 640, height: 480, wantX: 320, wantY: 240},
		{name: "truncates", x: 0.4719, y: 0.6229, width: 640, height: 480, wantX: 302, wantY: 298},
		{name: "far corner", x: 1, y: 1, width: 640, height: 480, wantX: 640, wantY: 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := HandLandmarks{}
			hand.Points[IndexTip] = Point3D{X: tt.x, Y: tt.y}

			got := hand.Pixel(IndexTip, tt.width, tt.height)
			if got.X != tt.wantX || got.Y != tt.wantY {
				t.Errorf("Pixel() = %v, want (%d,%d)", got, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestHandLandmarks_Fingertips(t *testing.T) {
	hand := PinchLandmarks(0.25, 0.75)

	thumb, index := hand.Fingertips(400, 400)
	if thumb.X != 100 || thumb.Y != 300 {
		t.Errorf("thumb = %v, want (100,300)", thumb)
	}
	if index != thumb {
		t.Errorf("index = %v, want %v", index, thumb)
	}
}

func TestHandConnections_InRange(t *testing.T) {
	for _, c := range HandConnections {
		for _, idx := range c {
			if idx < 0 || idx >= NumLandmarks {
				t.Errorf("connection %v references landmark %d out of range", c, idx)
			}
		}
	}
}
