package theme

import (
	"strings"
	"testing"
)

var meterTests = []struct {
	Level  float64
	Width  int
	Filled int
}{
	{0, 24, 0},
	{50, 24, 12},
	{100, 24, 24},
	{150, 24, 24}, // clamps to the bar width
	{75, 10, 7},
}

func TestRenderMeter(t *testing.T) {
	th := &DefaultTheme{}
	for _, test := range meterTests {
		bar := th.RenderMeter(test.Level, test.Width)
		filled := strings.Count(bar, "█")
		empty := strings.Count(bar, "░")
		if filled != test.Filled || filled+empty != test.Width {
			t.Log("level   ", test.Level, "width", test.Width)
			t.Log("got     ", filled, "filled,", empty, "empty")
			t.Log("expected", test.Filled, "filled")
			t.Fail()
		}
	}
	if th.RenderMeter(50, 0) != "" {
		t.Fatal("zero-width meter rendered output")
	}
}
