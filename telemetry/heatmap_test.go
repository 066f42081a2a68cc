package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/pthm-cable/dla/systems"
)

func TestGridXYZ(t *testing.T) {
	g := systems.NewGrid(5)
	g.Commit(3, 2, 1)
	xyz := gridXYZ{g}

	c, r := xyz.Dims()
	if c != 5 || r != 5 {
		t.Fatalf("Dims = %d, %d; want 5, 5", c, r)
	}
	if z := xyz.Z(2, 2); z != 0 {
		t.Errorf("seed Z = %v, want 0", z)
	}
	if z := xyz.Z(3, 2); z != 1 {
		t.Errorf("Z(3, 2) = %v, want 1", z)
	}
	if z := xyz.Z(0, 0); z == z {
		t.Errorf("empty Z = %v, want NaN", z)
	}
}

func TestSaveHeatmap(t *testing.T) {
	g := systems.NewGrid(21)
	g.Commit(11, 10, 1)
	g.Commit(12, 10, 2)

	path := filepath.Join(t.TempDir(), "img", "cluster.png")
	if err := SaveHeatmap(g, path, HeatmapOptions{Width: 4 * vg.Centimeter, Height: 4 * vg.Centimeter}); err != nil {
		t.Fatalf("SaveHeatmap: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("empty image")
	}
}
