// Package cluster aggregates nearby spots into zoom-dependent clusters.
//
// Points are projected to Web Mercator world space and merged level by
// level, from the raw points at MaxZoom+1 down to MinZoom. At zoom z two
// items merge when they lie within Radius pixels of each other on a world
// that is Extent*2^z pixels wide.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r2"

	"github.com/jengzang/spotmap-go/internal/models"
	"github.com/jengzang/spotmap-go/internal/spatial"
)

// ErrUnknownCluster is returned for ids that do not belong to the loaded data
var ErrUnknownCluster = errors.New("unknown cluster")

// Options controls the aggregation
type Options struct {
	Radius    float64 // pixels
	Extent    float64 // pixels per tile
	MinZoom   int
	MaxZoom   int
	MinPoints int
}

// DefaultOptions mirrors the map's default cluster source settings
func DefaultOptions() Options {
	return Options{
		Radius:    50,
		Extent:    512,
		MinZoom:   0,
		MaxZoom:   14,
		MinPoints: 2,
	}
}

// Point is one spot fed into the index
type Point struct {
	SpotID   int64
	Title    string
	Category models.Category
	Position spatial.Point
}

// Feature is one rendered item: either a cluster or a single spot
type Feature struct {
	Cluster    bool
	ClusterID  int64
	PointCount int

	SpotID   int64
	Title    string
	Category models.Category

	Position spatial.Point
}

// node is an item of one zoom level
type node struct {
	pos   r2.Point
	count int
	id    int64 // cluster id, 0 for a raw point
	point int   // index into Index.points when id == 0
}

type clusterInfo struct {
	zoom     int // level it was created at
	children []node
}

// Index is a hierarchical cluster index. Load replaces its content.
type Index struct {
	opts Options

	mu       sync.RWMutex
	points   []Point
	levels   map[int][]node
	clusters map[int64]*clusterInfo
}

// maxZoomLimit keeps zoom+1 within the low five bits of a cluster id
const maxZoomLimit = 30

// NewIndex creates an empty index
func NewIndex(opts Options) *Index {
	def := DefaultOptions()
	if opts.Radius <= 0 {
		opts.Radius = def.Radius
	}
	if opts.Extent <= 0 {
		opts.Extent = def.Extent
	}
	if opts.MinZoom < 0 {
		opts.MinZoom = 0
	}
	if opts.MaxZoom > maxZoomLimit {
		opts.MaxZoom = maxZoomLimit
	}
	if opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = opts.MinZoom
	}
	if opts.MinPoints < 2 {
		opts.MinPoints = def.MinPoints
	}
	return &Index{
		opts:     opts,
		levels:   make(map[int][]node),
		clusters: make(map[int64]*clusterInfo),
	}
}

// Options returns the effective options
func (idx *Index) Options() Options {
	return idx.opts
}

// Load rebuilds the index from points.
// A cluster id is derived from the position of its seed item and the zoom it
// was created at, so loading identical points yields identical ids.
func (idx *Index) Load(points []Point) {
	leaves := make([]node, len(points))
	for i, p := range points {
		leaves[i] = node{pos: spatial.Project(p.Position), count: 1, point: i}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.points = append([]Point(nil), points...)
	idx.levels = map[int][]node{idx.opts.MaxZoom + 1: leaves}
	idx.clusters = make(map[int64]*clusterInfo)

	items := leaves
	for z := idx.opts.MaxZoom; z >= idx.opts.MinZoom; z-- {
		items = idx.clusterLevel(items, z)
		idx.levels[z] = items
	}
}

// clusterLevel merges items of level z+1 into level z
func (idx *Index) clusterLevel(items []node, z int) []node {
	r := idx.opts.Radius / (idx.opts.Extent * math.Exp2(float64(z)))
	grid := newGrid(r, items)
	visited := make([]bool, len(items))

	out := make([]node, 0, len(items))
	for i, item := range items {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := grid.within(item.pos, r, func(j int) bool { return !visited[j] })
		count := item.count
		for _, j := range neighbors {
			count += items[j].count
		}

		if len(neighbors) == 0 || count < idx.opts.MinPoints {
			out = append(out, item)
			continue
		}

		children := []node{item}
		wx := item.pos.X * float64(item.count)
		wy := item.pos.Y * float64(item.count)
		for _, j := range neighbors {
			visited[j] = true
			n := items[j]
			children = append(children, n)
			wx += n.pos.X * float64(n.count)
			wy += n.pos.Y * float64(n.count)
		}

		id := clusterID(i, z)
		idx.clusters[id] = &clusterInfo{zoom: z, children: children}
		out = append(out, node{
			pos:   r2.Point{X: wx / float64(count), Y: wy / float64(count)},
			count: count,
			id:    id,
		})
	}
	return out
}

func clusterID(seed, zoom int) int64 {
	return int64(seed)<<5 | int64(zoom+1)
}

// Features returns the items of the level for zoom that lie inside rect
func (idx *Index) Features(rect r2.Rect, zoom float64) []Feature {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	level := idx.levels[idx.levelFor(zoom)]
	var out []Feature
	for _, n := range level {
		if rect.ContainsPoint(n.pos) {
			out = append(out, idx.feature(n))
		}
	}
	return out
}

// ExpansionZoom returns the zoom at which the cluster splits into its children
func (idx *Index) ExpansionZoom(clusterID int64) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	info, ok := idx.clusters[clusterID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCluster, clusterID)
	}
	return info.zoom + 1, nil
}

// Children returns the items a cluster was merged from
func (idx *Index) Children(clusterID int64) ([]Feature, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	info, ok := idx.clusters[clusterID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, clusterID)
	}
	out := make([]Feature, 0, len(info.children))
	for _, n := range info.children {
		out = append(out, idx.feature(n))
	}
	return out, nil
}

// Leaves returns every point aggregated under a cluster
func (idx *Index) Leaves(clusterID int64) ([]Point, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	info, ok := idx.clusters[clusterID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, clusterID)
	}
	var out []Point
	idx.collectLeaves(info, &out)
	return out, nil
}

func (idx *Index) collectLeaves(info *clusterInfo, out *[]Point) {
	for _, n := range info.children {
		if n.id == 0 {
			*out = append(*out, idx.points[n.point])
			continue
		}
		idx.collectLeaves(idx.clusters[n.id], out)
	}
}

func (idx *Index) levelFor(zoom float64) int {
	z := int(math.Floor(zoom))
	if z < idx.opts.MinZoom {
		return idx.opts.MinZoom
	}
	if z > idx.opts.MaxZoom+1 {
		return idx.opts.MaxZoom + 1
	}
	return z
}

func (idx *Index) feature(n node) Feature {
	if n.id != 0 {
		return Feature{
			Cluster:    true,
			ClusterID:  n.id,
			PointCount: n.count,
			Position:   spatial.Unproject(n.pos),
		}
	}
	p := idx.points[n.point]
	return Feature{
		SpotID:     p.SpotID,
		Title:      p.Title,
		Category:   p.Category,
		PointCount: 1,
		Position:   p.Position,
	}
}
