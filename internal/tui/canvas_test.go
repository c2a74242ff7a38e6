package tui

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCanvasSetBounds(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(-1, 0)
	c.Set(0, -1)
	c.Set(8, 0)
	c.Set(0, 8)
	if c.String() != strings.Repeat(string(rune(brailleBlank)), 4)+"\n"+strings.Repeat(string(rune(brailleBlank)), 4) {
		t.Errorf("out of range dots changed the canvas: %q", c.String())
	}

	c.Set(1, 3)
	if !c.IsSet(1, 3) {
		t.Error("expected dot (1,3) set")
	}
	if c.Grid[0][0] != brailleBlank|0x80 {
		t.Errorf("unexpected cell %U", c.Grid[0][0])
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 4)
	c.DrawLine(0, 0, 19, 15)
	if !c.IsSet(0, 0) || !c.IsSet(19, 15) {
		t.Error("line endpoints not drawn")
	}
}

func TestDrawPendulumVertical(t *testing.T) {
	c := NewCanvas(20, 6)
	c.DrawPendulum(0, nil)

	px, py, bx, by := c.Bob(0)
	if bx != px {
		t.Errorf("vertical bob at x=%d, pivot at x=%d", bx, px)
	}
	if by <= py {
		t.Errorf("bob should hang below the pivot")
	}
	for y := py; y <= by; y++ {
		if !c.IsSet(px, y) {
			t.Fatalf("rod missing at y=%d", y)
		}
	}
}

func TestBobFollowsAngle(t *testing.T) {
	c := NewCanvas(20, 6)
	px, _, right, _ := c.Bob(30)
	_, _, left, _ := c.Bob(-30)
	if right <= px || left >= px {
		t.Errorf("positive angles swing right: left=%d pivot=%d right=%d", left, px, right)
	}
	if right-px != px-left {
		t.Errorf("swing not symmetric: %d vs %d", right-px, px-left)
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(7, 3)
	lines := strings.Split(c.String(), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if utf8.RuneCountInString(l) != 7 {
			t.Errorf("expected 7 cells, got %d", utf8.RuneCountInString(l))
		}
	}
}

func TestGetTheme(t *testing.T) {
	if GetTheme("retro").Name != "retro" {
		t.Error("expected retro theme")
	}
	if GetTheme("nope").Name != "classic" {
		t.Error("expected classic fallback")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}
