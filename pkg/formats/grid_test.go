package formats

import "testing"

func TestNeighbor(t *testing.T) {
	tests := []struct {
		x, y   int
		d      Dir
		nx, ny int
	}{
		{5, 5, DirNE, 6, 4},
		{5, 5, DirSE, 6, 6},
		{5, 5, DirSW, 5, 6},
		{5, 5, DirNW, 5, 4},
		{6, 6, DirNE, 6, 5},
		{6, 6, DirSE, 6, 7},
		{6, 6, DirSW, 5, 7},
		{6, 6, DirNW, 5, 5},
		{5, 5, DirN, 5, 3},
		{5, 5, DirS, 5, 7},
		{5, 5, DirE, 6, 5},
		{5, 5, DirW, 4, 5},
	}
	for _, tt := range tests {
		nx, ny, ok := Neighbor(tt.x, tt.y, tt.d)
		if !ok || nx != tt.nx || ny != tt.ny {
			t.Errorf("Neighbor(%d, %d, %s) = (%d, %d, %v), want (%d, %d)",
				tt.x, tt.y, tt.d, nx, ny, ok, tt.nx, tt.ny)
		}
	}
}

func TestNeighborEdges(t *testing.T) {
	tests := []struct {
		x, y int
		d    Dir
	}{
		{0, 0, DirN},
		{0, 0, DirNW},
		{0, 0, DirW},
		{0, 1, DirN},
		{MapCols - 1, 1, DirNE},
		{MapCols - 1, 0, DirE},
		{0, MapRows - 1, DirS},
		{0, MapRows - 2, DirS},
	}
	for _, tt := range tests {
		if _, _, ok := Neighbor(tt.x, tt.y, tt.d); ok {
			t.Errorf("Neighbor(%d, %d, %s) should leave the grid", tt.x, tt.y, tt.d)
		}
	}
}

func TestNeighborOpposite(t *testing.T) {
	for _, d := range append(Diagonals[:], Cardinals[:]...) {
		for _, y := range []int{10, 11} {
			nx, ny, ok := Neighbor(20, y, d)
			if !ok {
				t.Fatalf("Neighbor(20, %d, %s) failed", y, d)
			}
			bx, by, ok := Neighbor(nx, ny, d.Opposite())
			if !ok || bx != 20 || by != y {
				t.Errorf("%s then %s from (20, %d) lands on (%d, %d)", d, d.Opposite(), y, bx, by)
			}
		}
	}
}

func TestParseDir(t *testing.T) {
	for d := DirN; d <= DirNW; d++ {
		got, err := ParseDir(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDir(%q) = %v, %v", d.String(), got, err)
		}
	}
	if _, err := ParseDir("UP"); err == nil {
		t.Error("expected error for UP")
	}
}
