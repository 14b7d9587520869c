package view

import (
	"testing"

	"mapforge/pkg/geometry"
)

func TestWorldScreenRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		view  View
		world geometry.Point2D
	}{
		{"origin view", View{}, geometry.NewPoint2D(100, 200)},
		{"scrolled", View{X: 512, Y: -256}, geometry.NewPoint2D(100, 200)},
		{"negative world", View{X: 10, Y: 10}, geometry.NewPoint2D(-50, -75)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := WorldToScreen(tt.world, tt.view)
			wantX := tt.world.X - tt.view.X
			if screen.X != wantX {
				t.Errorf("WorldToScreen X = %v, want %v", screen.X, wantX)
			}
			back := ScreenToWorld(screen, tt.view)
			if back != tt.world {
				t.Errorf("round trip = %+v, want %+v", back, tt.world)
			}
		})
	}
}

func TestPan(t *testing.T) {
	v := View{X: 10, Y: 20}.Pan(-5, 15)
	if v.X != 5 || v.Y != 35 {
		t.Errorf("Pan = %+v, want {5 35}", v)
	}
}

func TestVisible(t *testing.T) {
	r := Visible(View{X: 1000, Y: 2000}, 800, 600)
	want := geometry.NewRect(1000, 2000, 800, 600)
	if r != want {
		t.Errorf("Visible = %+v, want %+v", r, want)
	}
}
