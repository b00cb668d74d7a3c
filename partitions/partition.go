package partitions

import (
	"fmt"
	"math"

	"github.com/notargets/MeshQual/element"
	"github.com/notargets/MeshQual/mesh"
)

// Partition is one local optimization neighborhood: a set of elements
// evaluated and optimized together as a sub-patch.
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Element membership
	Elements    []int // Element indices in the source patch
	NumElements int

	// Center is the vertex a vertex patch is built around, -1 for element
	// partitions. Only the center moves when the partition is extracted.
	Center int

	// Mixed element support
	ElementTypes []element.ElementGeometry
	TypeGroups   []ElementGroup
}

// ElementGroup represents elements of the same type within a partition
type ElementGroup struct {
	ElementType element.ElementGeometry
	StartIndex  int   // Starting position in the group ordering
	Count       int   // Number of elements of this type
	LocalIDs    []int // Indices within the partition
}

// PartitionLayout manages the complete patch decomposition
type PartitionLayout struct {
	Strategy   PatchStrategy
	Partitions []Partition

	KpartMax      int // max(NumElements) across all partitions
	TotalElements int // Elements in the source patch
	NumPartitions int

	// EToP maps element k to its partition for disjoint strategies. Vertex
	// patches overlap, so it is nil for them.
	EToP []int
}

// GetPartition returns the partition containing element k, or -1.
func (pl *PartitionLayout) GetPartition(elementID int) int {
	if elementID < 0 || elementID >= len(pl.EToP) {
		return -1
	}
	return pl.EToP[elementID]
}

// ValidateLayout checks partition consistency
func (pl *PartitionLayout) ValidateLayout() error {
	if pl.NumPartitions != len(pl.Partitions) {
		return fmt.Errorf("NumPartitions %d != %d partitions", pl.NumPartitions, len(pl.Partitions))
	}
	actualMax := 0
	for _, p := range pl.Partitions {
		if p.NumElements != len(p.Elements) {
			return fmt.Errorf("partition %d: NumElements %d != %d elements", p.ID, p.NumElements, len(p.Elements))
		}
		if p.NumElements > actualMax {
			actualMax = p.NumElements
		}
		for _, e := range p.Elements {
			if e < 0 || e >= pl.TotalElements {
				return fmt.Errorf("partition %d: element %d: %w", p.ID, e, mesh.ErrIndex)
			}
		}
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d", actualMax, pl.KpartMax)
	}
	if pl.EToP == nil {
		return nil
	}
	if len(pl.EToP) != pl.TotalElements {
		return fmt.Errorf("EToP length %d does not match %d elements", len(pl.EToP), pl.TotalElements)
	}
	seen := make([]int, pl.TotalElements)
	for _, p := range pl.Partitions {
		for _, e := range p.Elements {
			seen[e]++
			if pl.EToP[e] != p.ID {
				return fmt.Errorf("element %d listed in partition %d but EToP says %d", e, p.ID, pl.EToP[e])
			}
		}
	}
	for e, n := range seen {
		if n != 1 {
			return fmt.Errorf("element %d appears in %d partitions", e, n)
		}
	}
	return nil
}

// Extract cuts partition i out of p as a sub-patch. For vertex patches every
// vertex other than the center is fixed in the sub-patch, and the center
// stays fixed when it is fixed in p.
func (pl *PartitionLayout) Extract(p *mesh.Patch, i int) (*mesh.Patch, error) {
	if i < 0 || i >= len(pl.Partitions) {
		return nil, fmt.Errorf("partition %d: %w", i, mesh.ErrIndex)
	}
	part := pl.Partitions[i]
	sub, err := p.SubPatch(part.Elements)
	if err != nil {
		return nil, fmt.Errorf("partition %d: %w", i, err)
	}
	if part.Center >= 0 {
		center, pinned := p.VertexHandles[part.Center], p.Fixed[part.Center]
		for v, h := range sub.VertexHandles {
			if err := sub.SetFixed(v, h != center || pinned); err != nil {
				return nil, err
			}
		}
	}
	return sub, nil
}

// PartitionStatistics computes load balance metrics
func (pl *PartitionLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{
		NumPartitions: pl.NumPartitions,
		MinElements:   math.MaxInt32,
	}
	if pl.NumPartitions == 0 {
		stats.MinElements = 0
		return stats
	}
	total := 0
	for _, p := range pl.Partitions {
		total += p.NumElements
		if p.NumElements < stats.MinElements {
			stats.MinElements = p.NumElements
		}
		if p.NumElements > stats.MaxElements {
			stats.MaxElements = p.NumElements
		}
	}
	stats.AvgElements = float64(total) / float64(pl.NumPartitions)
	if stats.AvgElements > 0 {
		stats.Imbalance = float64(stats.MaxElements) / stats.AvgElements
	}
	return stats
}

type PartitionStats struct {
	NumPartitions int
	MinElements   int
	MaxElements   int
	AvgElements   float64
	Imbalance     float64 // MaxElements / AvgElements
}
