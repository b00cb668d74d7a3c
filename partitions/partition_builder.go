package partitions

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/MeshQual/element"
	"github.com/notargets/MeshQual/mesh"
)

// PatchStrategy defines how elements are grouped into patches
type PatchStrategy int

const (
	GlobalPatch    PatchStrategy = iota // the whole mesh is one patch
	VertexPatches                       // one patch per vertex, grown by element layers
	BlockPartition                      // consecutive elements
	RoundRobin                          // distribute cyclically
)

func (s PatchStrategy) String() string {
	switch s {
	case GlobalPatch:
		return "global"
	case VertexPatches:
		return "vertex"
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "round_robin"
	}
	return fmt.Sprintf("PatchStrategy(%d)", int(s))
}

// ParseStrategy maps a configuration name to a strategy.
func ParseStrategy(name string) (PatchStrategy, error) {
	for _, s := range []PatchStrategy{GlobalPatch, VertexPatches, BlockPartition, RoundRobin} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown patch strategy %q", name)
}

// PartitionBuilder constructs patches from a mesh patch
type PartitionBuilder struct {
	Patch    *mesh.Patch
	Strategy PatchStrategy

	// Element partition parameters
	TargetPartitionSize int // Desired elements per partition

	// Vertex patch parameters
	Layers           int  // element layers around the center vertex, at least 1
	FreeVerticesOnly bool // skip fixed vertices as patch centers
}

// BuildPartitions creates a partition layout from the patch
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.Patch == nil {
		return nil, fmt.Errorf("partition builder has no patch")
	}
	var (
		partitions []Partition
		eToP       []int
	)
	switch pb.Strategy {
	case GlobalPatch:
		eToP = make([]int, pb.Patch.NumElements())
		partitions = pb.createPartitions(eToP, 1)
	case VertexPatches:
		partitions = pb.vertexPartitions()
	case BlockPartition, RoundRobin:
		numPartitions := pb.calculateNumPartitions()
		eToP = pb.partitionElements(numPartitions)
		partitions = pb.createPartitions(eToP, numPartitions)
	default:
		return nil, fmt.Errorf("unknown patch strategy %d", pb.Strategy)
	}

	layout := &PartitionLayout{
		Strategy:      pb.Strategy,
		Partitions:    partitions,
		KpartMax:      pb.calculateKpartMax(partitions),
		TotalElements: pb.Patch.NumElements(),
		NumPartitions: len(partitions),
		EToP:          eToP,
	}
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

// calculateNumPartitions determines the block count
func (pb *PartitionBuilder) calculateNumPartitions() int {
	size := pb.TargetPartitionSize
	if size < 1 {
		size = 1
	}
	numPartitions := int(math.Ceil(float64(pb.Patch.NumElements()) / float64(size)))
	if numPartitions < 1 {
		numPartitions = 1
	}
	return numPartitions
}

// partitionElements assigns elements to partitions
func (pb *PartitionBuilder) partitionElements(numPartitions int) []int {
	k := pb.Patch.NumElements()
	eToP := make([]int, k)
	switch pb.Strategy {
	case RoundRobin:
		for i := 0; i < k; i++ {
			eToP[i] = i % numPartitions
		}
	default:
		elementsPerPartition := int(math.Ceil(float64(k) / float64(numPartitions)))
		if elementsPerPartition < 1 {
			elementsPerPartition = 1
		}
		for i := 0; i < k; i++ {
			eToP[i] = i / elementsPerPartition
			if eToP[i] >= numPartitions {
				eToP[i] = numPartitions - 1
			}
		}
	}
	return eToP
}

// createPartitions builds partition structures from element assignments
func (pb *PartitionBuilder) createPartitions(eToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{ID: i, Elements: make([]int, 0), Center: -1}
	}
	for elem, part := range eToP {
		partitions[part].Elements = append(partitions[part].Elements, elem)
		partitions[part].ElementTypes = append(partitions[part].ElementTypes, pb.Patch.Elements[elem].Type)
		partitions[part].NumElements++
	}
	for i := range partitions {
		partitions[i].TypeGroups = createElementGroups(&partitions[i])
	}
	return partitions
}

// vertexPartitions builds one patch per (free) vertex: the elements around
// it, grown outward by Layers-1 further rings of elements.
func (pb *PartitionBuilder) vertexPartitions() []Partition {
	p := pb.Patch
	layers := pb.Layers
	if layers < 1 {
		layers = 1
	}
	var partitions []Partition
	for v := 0; v < p.NumVertices(); v++ {
		if pb.FreeVerticesOnly && p.Fixed[v] {
			continue
		}
		adj := p.VertexElements(v)
		if len(adj) == 0 {
			continue
		}
		inPatch := make(map[int]bool)
		frontier := []int{v}
		seenVert := map[int]bool{v: true}
		for l := 0; l < layers; l++ {
			var next []int
			for _, u := range frontier {
				for _, e := range p.VertexElements(u) {
					if inPatch[e] {
						continue
					}
					inPatch[e] = true
					for _, w := range p.Elements[e].Conn {
						if !seenVert[w] {
							seenVert[w] = true
							next = append(next, w)
						}
					}
				}
			}
			frontier = next
		}
		elems := make([]int, 0, len(inPatch))
		for e := range inPatch {
			elems = append(elems, e)
		}
		sort.Ints(elems)
		part := Partition{
			ID:          len(partitions),
			Elements:    elems,
			NumElements: len(elems),
			Center:      v,
		}
		for _, e := range elems {
			part.ElementTypes = append(part.ElementTypes, p.Elements[e].Type)
		}
		part.TypeGroups = createElementGroups(&part)
		partitions = append(partitions, part)
	}
	return partitions
}

// createElementGroups organizes elements by type within a partition
func createElementGroups(p *Partition) []ElementGroup {
	if len(p.ElementTypes) == 0 {
		return nil
	}
	byType := make(map[element.ElementGeometry][]int)
	for i, t := range p.ElementTypes {
		byType[t] = append(byType[t], i)
	}
	types := make([]element.ElementGeometry, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	groups := make([]ElementGroup, 0, len(byType))
	currentIndex := 0
	for _, t := range types {
		indices := byType[t]
		groups = append(groups, ElementGroup{
			ElementType: t,
			StartIndex:  currentIndex,
			Count:       len(indices),
			LocalIDs:    indices,
		})
		currentIndex += len(indices)
	}
	return groups
}

// calculateKpartMax finds maximum elements across all partitions
func (pb *PartitionBuilder) calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		if p.NumElements > kpartMax {
			kpartMax = p.NumElements
		}
	}
	return kpartMax
}
