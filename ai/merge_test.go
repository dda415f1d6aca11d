package ai

import (
	"testing"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

// fourBlockState is a 2x2 partition of a 4x4 canvas.
func fourBlockState() *simulator.State {
	s := &simulator.State{
		Blocks:       map[string]*simulator.SimpleBlock{},
		NextGlobalID: 4,
	}
	corners := []isl.Point{{0, 0}, {2, 0}, {0, 2}, {2, 2}}
	for i, p := range corners {
		id := isl.BlockId{uint16(i)}
		b := simulator.NewSimpleBlock(id, p, isl.Point{2, 2}, isl.White)
		s.Blocks[id.Key()] = b
	}
	return s
}

func TestMergeAICollapsesPartition(t *testing.T) {
	img := raster.New(4, 4)
	initial := fourBlockState()

	a := NewMergeAI()
	prog := a.Solve(img, initial)

	state, err := simulator.SimulateAll(prog, initial)
	if err != nil {
		t.Fatalf("SimulateAll: %v", err)
	}
	active := state.ActiveBlocks()
	if len(active) != 1 {
		t.Fatalf("Got %d active blocks, want 1", len(active))
	}
	b := active[0]
	if b.P != (isl.Point{0, 0}) || b.Size != (isl.Point{4, 4}) {
		t.Errorf("Got %v size %v, want the full canvas", b.P, b.Size)
	}
	if b.Color != isl.White {
		t.Errorf("Got %v, want the final white fill", b.Color)
	}
	if !b.ID.Equal(a.MergedBlockID()) {
		t.Errorf("Got id %v, want %v", b.ID, a.MergedBlockID())
	}

	// 3 merges plus the final color
	if len(prog) != 4 {
		t.Errorf("Got %d moves, want 4", len(prog))
	}
}

func TestMergeAISingleBlockOnlyColors(t *testing.T) {
	img := raster.New(4, 4)
	initial := simulator.InitialState(4, 4, 0)

	a := NewMergeAI()
	prog := a.Solve(img, initial)

	if len(prog) != 1 {
		t.Fatalf("Got %d moves, want just the color move", len(prog))
	}
	if _, ok := prog[0].(isl.ColorMove); !ok {
		t.Errorf("Got %T, want ColorMove", prog[0])
	}
}
