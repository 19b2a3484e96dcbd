package categorytree_test

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"marketplace/internal/categorytree"
	"marketplace/internal/models"
)

func id(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func cat(n int, name string) models.Category {
	return models.Category{ID: id(n), Name: name}
}

func child(n int, name string, parent int) models.Category {
	p := id(parent)
	return models.Category{ID: id(n), Name: name, ParentID: &p}
}

// shape renders a forest as "name(children...)" strings for compact asserts.
func shape(nodes []*categorytree.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s := n.Category.Name
		if len(n.Children) > 0 {
			s += fmt.Sprint(shape(n.Children))
		}
		out = append(out, s)
	}
	return out
}

func TestBuildWoodMetalExample(t *testing.T) {
	c := qt.New(t)

	forest, err := categorytree.Build([]models.Category{
		cat(1, "Wood"),
		child(2, "Hardwood", 1),
		cat(3, "Metal"),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(forest.Roots, qt.HasLen, 2)
	c.Assert(forest.Orphans, qt.HasLen, 0)

	wood, metal := forest.Roots[0], forest.Roots[1]
	c.Assert(wood.Category.ID, qt.Equals, id(1))
	c.Assert(wood.Children, qt.HasLen, 1)
	c.Assert(wood.Children[0].Category.ID, qt.Equals, id(2))
	c.Assert(wood.Children[0].Children, qt.HasLen, 0)
	c.Assert(metal.Category.ID, qt.Equals, id(3))
	c.Assert(metal.Children, qt.IsNotNil)
	c.Assert(metal.Children, qt.HasLen, 0)
}

func TestBuildEmpty(t *testing.T) {
	c := qt.New(t)

	for _, in := range [][]models.Category{nil, {}} {
		forest, err := categorytree.Build(in)
		c.Assert(err, qt.IsNil)
		c.Assert(forest.Roots, qt.IsNotNil)
		c.Assert(forest.Roots, qt.HasLen, 0)
		c.Assert(forest.Orphans, qt.HasLen, 0)
	}
}

func TestBuildAllRoots(t *testing.T) {
	c := qt.New(t)

	in := []models.Category{cat(1, "Wood"), cat(2, "Metal"), cat(3, "Glass"), cat(4, "Stone")}
	forest, err := categorytree.Build(in)
	c.Assert(err, qt.IsNil)
	c.Assert(forest.Roots, qt.HasLen, len(in))
	for i, n := range forest.Roots {
		c.Assert(n.Category, qt.DeepEquals, in[i])
		c.Assert(n.Children, qt.HasLen, 0)
	}
}

func TestBuildChain(t *testing.T) {
	c := qt.New(t)

	forest, err := categorytree.Build([]models.Category{
		child(3, "C", 2),
		cat(1, "A"),
		child(2, "B", 1),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(shape(forest.Roots), qt.DeepEquals, []string{"A[B[C]]"})

	a := forest.Roots[0]
	c.Assert(a.Children, qt.HasLen, 1)
	b := a.Children[0]
	c.Assert(b.Children, qt.HasLen, 1)
	c.Assert(b.Children[0].Children, qt.HasLen, 0)
}

func TestBuildKeepsInputOrder(t *testing.T) {
	c := qt.New(t)

	forest, err := categorytree.Build([]models.Category{
		child(4, "Oak", 1),
		cat(2, "Metal"),
		child(5, "Pine", 1),
		cat(1, "Wood"),
		child(6, "Iron", 2),
		child(7, "Birch", 1),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(shape(forest.Roots), qt.DeepEquals, []string{"Metal[Iron]", "Wood[Oak Pine Birch]"})
}

func TestBuildPlacesEveryRecordOnce(t *testing.T) {
	c := qt.New(t)

	// Ten roots, each with a three-level chain below it.
	var in []models.Category
	for r := 0; r < 10; r++ {
		base := r * 10
		in = append(in, cat(base+1, fmt.Sprintf("root-%d", r)))
		for d := 2; d <= 4; d++ {
			in = append(in, child(base+d, fmt.Sprintf("node-%d-%d", r, d), base+d-1))
		}
	}

	forest, err := categorytree.Build(in)
	c.Assert(err, qt.IsNil)
	c.Assert(categorytree.Count(forest.Roots), qt.Equals, len(in))

	seen := make(map[uuid.UUID]int)
	for _, e := range categorytree.Flatten(forest.All()) {
		seen[e.Category.ID]++
	}
	c.Assert(seen, qt.HasLen, len(in))
	for k, n := range seen {
		c.Assert(n, qt.Equals, 1, qt.Commentf("id %s", k))
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	in := []models.Category{
		cat(1, "Wood"),
		child(2, "Hardwood", 1),
		child(3, "Softwood", 1),
		cat(4, "Metal"),
		child(5, "Steel", 4),
		child(6, "Stainless", 5),
	}

	first, err := categorytree.Build(in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := categorytree.Build(in)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("forests differ (-first +second):\n%s", diff)
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	c := qt.New(t)

	in := []models.Category{cat(1, "Wood"), child(2, "Hardwood", 1)}
	before := append([]models.Category(nil), in...)

	_, err := categorytree.Build(in)
	c.Assert(err, qt.IsNil)
	c.Assert(in, qt.DeepEquals, before)
}

func TestBuildSurfacesOrphans(t *testing.T) {
	c := qt.New(t)

	forest, err := categorytree.Build([]models.Category{
		cat(1, "Wood"),
		child(2, "Lost", 99),
		child(3, "Below lost", 2),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(shape(forest.Roots), qt.DeepEquals, []string{"Wood"})
	c.Assert(shape(forest.Orphans), qt.DeepEquals, []string{"Lost[Below lost]"})
	c.Assert(categorytree.Count(forest.All()), qt.Equals, 3)
}

func TestBuildDuplicateID(t *testing.T) {
	c := qt.New(t)

	_, err := categorytree.Build([]models.Category{cat(1, "Wood"), cat(2, "Metal"), cat(1, "Wood again")})
	c.Assert(err, qt.ErrorIs, categorytree.ErrDuplicateID)
	c.Assert(err, qt.ErrorMatches, `.*at positions 0 and 2: duplicate category id`)
}

func TestBuildAllowsUnsavedRecords(t *testing.T) {
	c := qt.New(t)

	forest, err := categorytree.Build([]models.Category{
		{Name: "Draft one"},
		{Name: "Draft two"},
		cat(1, "Wood"),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(shape(forest.Roots), qt.DeepEquals, []string{"Draft one", "Draft two", "Wood"})
}

func TestBuildCycle(t *testing.T) {
	tests := []struct {
		name     string
		in       []models.Category
		wantPath []uuid.UUID
	}{
		{
			name:     "self parent",
			in:       []models.Category{cat(1, "Wood"), child(2, "Loop", 2)},
			wantPath: []uuid.UUID{id(2), id(2)},
		},
		{
			name:     "two nodes",
			in:       []models.Category{child(1, "A", 2), child(2, "B", 1)},
			wantPath: []uuid.UUID{id(1), id(2), id(1)},
		},
		{
			name: "tail into loop",
			in: []models.Category{
				cat(9, "Root"),
				child(1, "Tail", 2),
				child(2, "A", 3),
				child(3, "B", 4),
				child(4, "C", 2),
			},
			wantPath: []uuid.UUID{id(2), id(3), id(4), id(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			forest, err := categorytree.Build(tt.in)
			c.Assert(forest, qt.IsNil)
			c.Assert(err, qt.ErrorIs, categorytree.ErrCyclicGraph)

			var cycle *categorytree.CycleError
			c.Assert(err, qt.ErrorAs, &cycle)
			c.Assert(cycle.Path, qt.DeepEquals, tt.wantPath)
		})
	}
}

func TestBuildMaxDepth(t *testing.T) {
	in := []models.Category{
		cat(1, "A"),
		child(2, "B", 1),
		child(3, "C", 2),
	}

	tests := []struct {
		name    string
		levels  int
		wantErr bool
	}{
		{name: "unlimited", levels: 0},
		{name: "exact fit", levels: 3},
		{name: "roomy", levels: 10},
		{name: "too shallow", levels: 2, wantErr: true},
		{name: "roots only", levels: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			_, err := categorytree.Build(in, categorytree.WithMaxDepth(tt.levels))
			if tt.wantErr {
				c.Assert(err, qt.ErrorIs, categorytree.ErrMaxDepthExceeded)
				return
			}
			c.Assert(err, qt.IsNil)
		})
	}
}

func TestBuildDeepChainDoesNotRecurse(t *testing.T) {
	c := qt.New(t)

	const depth = 100000
	in := make([]models.Category, depth)
	in[0] = cat(1, "level-1")
	for i := 1; i < depth; i++ {
		in[i] = child(i+1, fmt.Sprintf("level-%d", i+1), i)
	}

	forest, err := categorytree.Build(in)
	c.Assert(err, qt.IsNil)
	c.Assert(forest.Roots, qt.HasLen, 1)
	c.Assert(categorytree.Count(forest.Roots), qt.Equals, depth)
}
