package cluster

import (
	"math"

	"github.com/golang/geo/r2"
)

type cellKey struct {
	x, y int
}

// grid buckets node positions into square cells of one search radius
type grid struct {
	size  float64
	cells map[cellKey][]int
	items []node
}

func newGrid(size float64, items []node) *grid {
	g := &grid{size: size, cells: make(map[cellKey][]int), items: items}
	for i, n := range items {
		k := g.key(n.pos)
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

func (g *grid) key(p r2.Point) cellKey {
	return cellKey{x: int(math.Floor(p.X / g.size)), y: int(math.Floor(p.Y / g.size))}
}

// within returns the indexes within r of p that keep accepts
func (g *grid) within(p r2.Point, r float64, keep func(int) bool) []int {
	k := g.key(p)
	r2sq := r * r

	var out []int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, i := range g.cells[cellKey{k.x + dx, k.y + dy}] {
				if !keep(i) {
					continue
				}
				d := g.items[i].pos.Sub(p)
				if d.Dot(d) <= r2sq {
					out = append(out, i)
				}
			}
		}
	}
	return out
}
