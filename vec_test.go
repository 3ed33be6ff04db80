package bulb

import "testing"

func TestVec2_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Vec2
		want Vec2
	}{
		{"add", V2(1, 2).Add(V2(3, 4)), V2(4, 6)},
		{"sub", V2(5, 7).Sub(V2(2, 3)), V2(3, 4)},
		{"mul", V2(1.5, -2).Mul(2), V2(3, -4)},
		{"scale", V2(100, 50).Scale(1024, 1024), V2(0.09765625, 0.048828125)},
		{"scale zero extent", V2(100, 50).Scale(0, 10), V2(0, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Approx(tt.want, 1e-12) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestVec2_IsZero(t *testing.T) {
	if !V2(0, 0).IsZero() {
		t.Error("zero vector should report IsZero")
	}
	if V2(0, 1e-9).IsZero() {
		t.Error("non-zero vector should not report IsZero")
	}
}
