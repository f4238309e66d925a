package formats

import "fmt"

// Map grid dimensions.
const (
	MapCols = 100
	MapRows = 200
)

// Dir is a grid direction on the staggered map grid.
type Dir int

// Grid directions. Diagonals move one row; N and S move two rows, because
// odd rows are shifted half a tile to the east.
const (
	DirN Dir = iota
	DirNE
	DirE
	DirSE
	DirS
	DirSW
	DirW
	DirNW
)

// Diagonals lists the diagonal directions in connection-bit order.
var Diagonals = [4]Dir{DirNE, DirSE, DirSW, DirNW}

// Cardinals lists the cardinal directions in connection-bit order.
var Cardinals = [4]Dir{DirN, DirE, DirS, DirW}

// String returns the direction abbreviation.
func (d Dir) String() string {
	switch d {
	case DirN:
		return "N"
	case DirNE:
		return "NE"
	case DirE:
		return "E"
	case DirSE:
		return "SE"
	case DirS:
		return "S"
	case DirSW:
		return "SW"
	case DirW:
		return "W"
	case DirNW:
		return "NW"
	default:
		return fmt.Sprintf("Dir(%d)", int(d))
	}
}

// Opposite returns the direction pointing back.
func (d Dir) Opposite() Dir {
	return (d + 4) % 8
}

// ParseDir converts an abbreviation such as "NE" into a Dir.
func ParseDir(s string) (Dir, error) {
	for d := DirN; d <= DirNW; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// InBounds reports whether (x, y) is on the grid.
func InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < MapCols && y < MapRows
}

// Neighbor returns the coordinates one step from (x, y) in direction d.
// ok is false when the step leaves the grid.
func Neighbor(x, y int, d Dir) (nx, ny int, ok bool) {
	odd := y%2 == 1
	switch d {
	case DirN:
		nx, ny = x, y-2
	case DirS:
		nx, ny = x, y+2
	case DirE:
		nx, ny = x+1, y
	case DirW:
		nx, ny = x-1, y
	case DirNE:
		nx, ny = x, y-1
		if odd {
			nx++
		}
	case DirNW:
		nx, ny = x-1, y-1
		if odd {
			nx++
		}
	case DirSE:
		nx, ny = x, y+1
		if odd {
			nx++
		}
	case DirSW:
		nx, ny = x-1, y+1
		if odd {
			nx++
		}
	default:
		return 0, 0, false
	}
	if !InBounds(nx, ny) {
		return 0, 0, false
	}
	return nx, ny, true
}
