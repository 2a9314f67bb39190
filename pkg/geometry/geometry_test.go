package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLayout = Layout{Width: 900, Height: 800, RoadWidth: 160}

func TestDirection(t *testing.T) {
	t.Run("Parse and print", func(t *testing.T) {
		for _, d := range Directions {
			parsed, err := ParseDirection(d.String())
			require.NoError(t, err)
			assert.Equal(t, d, parsed)
		}

		parsed, err := ParseDirection(" west ")
		require.NoError(t, err)
		assert.Equal(t, West, parsed)

		_, err = ParseDirection("up")
		assert.Error(t, err)
	})

	t.Run("Text round trip rejects invalid values", func(t *testing.T) {
		_, err := Direction(9).MarshalText()
		assert.Error(t, err)

		var d Direction
		assert.Error(t, d.UnmarshalText([]byte("X")))
		require.NoError(t, d.UnmarshalText([]byte("E")))
		assert.Equal(t, East, d)
	})

	t.Run("Opposite and perpendicular", func(t *testing.T) {
		for _, d := range Directions {
			assert.Equal(t, d, d.Opposite().Opposite())
			assert.NotEqual(t, d.Vertical(), d.Perpendicular()[0].Vertical())
		}
	})

	t.Run("Reachable excludes U-turn", func(t *testing.T) {
		for _, d := range Directions {
			reachable := Reachable(d)
			assert.Len(t, reachable, 3)
			assert.Contains(t, reachable, d)
			assert.NotContains(t, reachable, d.Opposite())
		}
	})
}

func TestLayout(t *testing.T) {
	lim := testLayout.Limits()
	assert.Equal(t, Limits{Top: 320, Bottom: 480, Left: 370, Right: 530}, lim)

	t.Run("Traffic keeps right", func(t *testing.T) {
		assert.Equal(t, 490.0, testLayout.LaneCenter(North))
		assert.Equal(t, 410.0, testLayout.LaneCenter(South))
		assert.Equal(t, 440.0, testLayout.LaneCenter(East))
		assert.Equal(t, 360.0, testLayout.LaneCenter(West))
	})

	t.Run("Lights stand on the near edge of the box", func(t *testing.T) {
		assert.Equal(t, Point{X: 490, Y: 480}, testLayout.LightPosition(North))
		assert.Equal(t, Point{X: 410, Y: 320}, testLayout.LightPosition(South))
		assert.Equal(t, Point{X: 370, Y: 440}, testLayout.LightPosition(East))
		assert.Equal(t, Point{X: 530, Y: 360}, testLayout.LightPosition(West))
	})

	t.Run("Contains", func(t *testing.T) {
		assert.True(t, testLayout.Contains(testLayout.Center()))
		assert.False(t, testLayout.Contains(Point{X: -1, Y: 10}))
	})

	t.Run("Walk zone surrounds the box", func(t *testing.T) {
		zone := testLayout.WalkZone()
		assert.Less(t, zone.Top, lim.Top)
		assert.Greater(t, zone.Right, lim.Right)
		for _, n := range Endpoints {
			p := testLayout.EndpointPoint(n, 8, 10)
			assert.True(t, p.X > zone.Left && p.X < zone.Right && p.Y > zone.Top && p.Y < zone.Bottom, "endpoint %s", n)
		}
	})
}

func TestPedestrianGraph(t *testing.T) {
	pg := NewPedestrianGraph(testLayout)

	t.Run("Every edge is labelled", func(t *testing.T) {
		edges := pg.Edges()
		assert.Len(t, edges, 24)
		for _, e := range edges {
			label, ok := pg.Label(e.From, e.To)
			assert.True(t, ok)
			assert.Equal(t, e.Direction, label)
		}
		_, ok := pg.Label(NE, SE)
		assert.False(t, ok)
	})

	t.Run("Same-side route walks along one sidewalk", func(t *testing.T) {
		route, err := pg.ShortestPath(NE, SE)
		require.NoError(t, err)
		assert.Equal(t, []Node{NE, CornerBR, CornerTR, SE}, route)
	})

	t.Run("Every endpoint pair is connected", func(t *testing.T) {
		for _, from := range Endpoints {
			for _, to := range Endpoints {
				if from == to {
					continue
				}
				route, err := pg.ShortestPath(from, to)
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, from, route[0])
				assert.Equal(t, to, route[len(route)-1])
				for i := 0; i+1 < len(route); i++ {
					_, ok := pg.Label(route[i], route[i+1])
					assert.True(t, ok, "segment %s -> %s", route[i], route[i+1])
				}
			}
		}
	})

	t.Run("Invalid routes", func(t *testing.T) {
		_, err := pg.ShortestPath(NE, NE)
		assert.Error(t, err)
		_, err = pg.ShortestPath(NE, Node(99))
		assert.Error(t, err)
	})
}

func TestCrossingLegs(t *testing.T) {
	for _, d := range Directions {
		for _, leg := range CrossingLegs(d) {
			approach, ok := leg.Approach()
			require.True(t, ok)
			assert.Equal(t, d, approach)
		}
	}

	leg, ok := CrossingLeg(CornerTL, CornerTR)
	assert.True(t, ok)
	assert.Equal(t, SW, leg)

	_, ok = CrossingLeg(NE, CornerBR)
	assert.False(t, ok)

	_, ok = CornerTL.Approach()
	assert.False(t, ok)
	assert.True(t, CornerBR.IsCorner())
	assert.False(t, WS.IsCorner())
	assert.Equal(t, "TL", CornerTL.String())
}
