package audio

import "testing"

func busList() []Bus {
	return []Bus{
		{Name: "A", Channels: 2},
		{Name: "B", Channels: 4},
	}
}

func TestTotalChannels(t *testing.T) {
	if got := TotalChannels(busList()); got != 6 {
		t.Errorf("TotalChannels() = %d, want 6", got)
	}
	if got := TotalChannels(nil); got != 0 {
		t.Errorf("TotalChannels(nil) = %d, want 0", got)
	}
}

func TestStartChannel(t *testing.T) {
	tests := []struct {
		name   string
		target Bus
		want   int
	}{
		{name: "first bus", target: Bus{Name: "A", Channels: 2}, want: 0},
		{name: "second bus", target: Bus{Name: "B", Channels: 4}, want: 2},
		{name: "unknown bus defaults to zero", target: Bus{Name: "monitor", Channels: 2}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StartChannel(busList(), tt.target); got != tt.want {
				t.Errorf("StartChannel() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStartChannelNoMatch(t *testing.T) {
	// With an empty bus list every target starts at channel 0.
	if got := StartChannel(nil, Bus{Name: "B"}); got != 0 {
		t.Errorf("StartChannel() = %d, want 0", got)
	}
}

func TestBusByName(t *testing.T) {
	b, ok := BusByName(busList(), "B")
	if !ok || b.Channels != 4 {
		t.Errorf("BusByName(B) = %+v, %v", b, ok)
	}
	if _, ok := BusByName(busList(), "missing"); ok {
		t.Error("BusByName(missing) should not be found")
	}
}

func TestMixMatrixPlacement(t *testing.T) {
	buses := []Bus{
		{Name: "A", Channels: 2},
		{Name: "B", Channels: 2},
	}
	target := buses[1]

	matrix := MixMatrix(buses, target, 2, 2.0, 1.5)
	gain := float32(3.0)

	if len(matrix) != 4 {
		t.Fatalf("matrix rows = %d, want 4", len(matrix))
	}
	for out := 0; out < 4; out++ {
		if len(matrix[out]) != 2 {
			t.Fatalf("matrix[%d] cols = %d, want 2", out, len(matrix[out]))
		}
		for in := 0; in < 2; in++ {
			want := float32(0)
			if (out == 2 && in == 0) || (out == 3 && in == 1) {
				want = gain
			}
			if matrix[out][in] != want {
				t.Errorf("matrix[%d][%d] = %v, want %v", out, in, matrix[out][in], want)
			}
		}
	}
}

func TestMixMatrixUnityClamp(t *testing.T) {
	// The gain never drops below 1.0, even when the volume product would
	// attenuate. Preserved behavior, see DESIGN.md.
	buses := []Bus{{Name: "main", Channels: 2}}

	matrix := MixMatrix(buses, buses[0], 2, 0.25, 0.5)
	if matrix[0][0] != 1.0 {
		t.Errorf("matrix[0][0] = %v, want clamped 1.0", matrix[0][0])
	}
	if matrix[1][1] != 1.0 {
		t.Errorf("matrix[1][1] = %v, want clamped 1.0", matrix[1][1])
	}
}

func TestMixMatrixSourceWiderThanBus(t *testing.T) {
	// Source channels beyond the bus width contribute nothing.
	buses := []Bus{{Name: "mono", Channels: 1}}

	matrix := MixMatrix(buses, buses[0], 2, 1.0, 1.0)
	if matrix[0][0] != 1.0 {
		t.Errorf("matrix[0][0] = %v, want 1.0", matrix[0][0])
	}
	if matrix[0][1] != 0 {
		t.Errorf("matrix[0][1] = %v, want 0", matrix[0][1])
	}
}

func TestFormatMixMatrix(t *testing.T) {
	matrix := [][]float32{
		{1, 0},
		{0, 2.5},
	}
	want := "<<(float)1, (float)0>, <(float)0, (float)2.5>>"
	if got := FormatMixMatrix(matrix); got != want {
		t.Errorf("FormatMixMatrix() = %q, want %q", got, want)
	}
}
