package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MazeRover/internal/model"
)

func TestCommands(t *testing.T) {
	tests := []struct {
		cmd  model.Command
		line string
	}{
		{model.Command{Name: CmdPose}, "POSE"},
		{model.Command{Name: CmdTurn, Args: []float64{-90}}, "TURN,-90"},
		{model.Command{Name: CmdMove, Args: []float64{50}}, "MOVE,50"},
		{model.Command{Name: CmdDrive, Args: []float64{10, 10.5}}, "DRIVE,10,10.5"},
		{model.Command{Name: CmdLight, Args: []float64{255, 0, 0}}, "LED,255,0,0"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.line, EncodeCommand(tt.cmd))

			got, err := ParseCommand(tt.line + "\n")
			require.NoError(t, err)
			assert.Equal(t, tt.cmd.Name, got.Name)
			assert.Equal(t, len(tt.cmd.Args), len(got.Args))
			for i := range tt.cmd.Args {
				assert.Equal(t, tt.cmd.Args[i], got.Args[i])
			}
		})
	}

	t.Run("errors", func(t *testing.T) {
		_, err := ParseCommand("JUMP,1")
		assert.ErrorIs(t, err, ErrUnknownCommand)
		_, err = ParseCommand("TURN")
		assert.Error(t, err)
		_, err = ParseCommand("MOVE,far")
		assert.Error(t, err)
	})
}

func TestPoseReply(t *testing.T) {
	line := EncodePose(model.Pose{X: 50, Y: -0.25, Heading: 90})
	assert.Equal(t, "POSE,50.000,-0.250,90.000", line)

	r, err := ParseReply(line)
	require.NoError(t, err)
	pose, err := DecodePose(r)
	require.NoError(t, err)
	assert.Equal(t, model.Pose{X: 50, Y: -0.25, Heading: 90}, pose)

	_, err = DecodePose(model.Reply{Kind: CmdPose, Fields: []string{"1", "2"}})
	assert.Error(t, err)
	_, err = DecodePose(model.Reply{Kind: ReplyAck, Fields: []string{"POSE"}})
	assert.Error(t, err)
}

func TestProximityReply(t *testing.T) {
	readings := []int{900, 0, 0, 5, 0, 0, 900}
	line := EncodeProximity(readings)
	assert.Equal(t, "IR,900,0,0,5,0,0,900", line)

	r, err := ParseReply(line)
	require.NoError(t, err)
	got, err := DecodeProximity(r)
	require.NoError(t, err)
	assert.Equal(t, readings, got)

	_, err = DecodeProximity(model.Reply{Kind: CmdIR, Fields: []string{"1", "x"}})
	assert.Error(t, err)
}

func TestEvents(t *testing.T) {
	e := model.Event{Kind: model.EventBump, Left: true}
	line := EncodeEvent(e)
	assert.Equal(t, "EVT,BUMP,1,0", line)
	assert.True(t, IsEvent(line))
	assert.False(t, IsEvent("ACK,MOVE"))

	got, err := ParseEvent(line)
	require.NoError(t, err)
	assert.Equal(t, e, got)
	assert.True(t, got.Triggered())

	_, err = ParseEvent("EVT,WHEEL,1,0")
	assert.Error(t, err)
	_, err = ParseEvent("EVT,BUTTON,1")
	assert.Error(t, err)
}

func TestReplies(t *testing.T) {
	assert.Equal(t, "ACK,MOVE", EncodeAck(CmdMove))
	assert.Equal(t, "ERR,MOVE,motor stalled; left", EncodeError(CmdMove, "motor stalled, left"))

	_, err := ParseReply("  ")
	assert.Error(t, err)

	for line, want := range map[string]string{
		"POSE,1,2,3":         CmdPose,
		"IR,0,0,0,0,0,0,0":   CmdIR,
		"ACK,move":           CmdMove,
		"ERR,TURN,bad angle": CmdTurn,
		"ACK":                "",
		"HELLO,1":            "",
	} {
		r, err := ParseReply(line)
		require.NoError(t, err)
		assert.Equal(t, want, ReplyCommand(r), line)
	}
}
