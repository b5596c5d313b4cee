package logger

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestProgressBar_Render(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		current int
		want    string
	}{
		{"empty", 18, 0, "[          ] 0/18 (0%)"},
		{"half", 18, 9, "[=====     ] 9/18 (50%)"},
		{"done", 18, 18, "[==========] 18/18 (100%)"},
		{"over", 4, 6, "[==========] 6/4 (100%)"},
		{"zero total", 0, 0, "[          ] 0/0 (0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, 10, false)
			pb.Update(tt.current)
			assert.Equal(t, tt.want, pb.Render())
		})
	}
}

func TestProgressBar_IncrementAndPrefix(t *testing.T) {
	pb := NewProgressBar(4, 0, false)
	pb.SetPrefix("Answered ")
	pb.Increment()
	pb.Increment()

	assert.Equal(t, 2, pb.Current())
	assert.Equal(t, 4, pb.Total())
	assert.Equal(t, 50, pb.Percentage())
	assert.Equal(t, "Answered [=====     ] 2/4 (50%)", pb.Render())
}

func TestProgressBar_Color(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	pb := NewProgressBar(2, 10, true)
	pb.Update(1)
	assert.Contains(t, pb.Render(), "\x1b[36m")
	pb.Update(2)
	assert.Contains(t, pb.Render(), "\x1b[32m")
}
