package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	dotenc "gonum.org/v1/gonum/graph/encoding/dot"

	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// DOTGenerator generates Graphviz DOT format representations of light state machines
type DOTGenerator struct {
	machineDefinition *signal.Definition
	options           DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowGuardConditions bool
	ShowActions         bool
	RankDirection       string // "TB", "LR", "BT", "RL"
	NodeShape           string
	TransitionStyle     string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowGuardConditions: true,
		ShowActions:         true,
		RankDirection:       "LR",
		NodeShape:           "box",
		TransitionStyle:     "solid",
	}
}

// NewDOTGenerator creates a new DOT generator for the given machine definition
func NewDOTGenerator(machineDefinition *signal.Definition, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		machineDefinition: machineDefinition,
		options:           opts,
	}
}

// Generate creates a DOT representation of the state machine
func (g *DOTGenerator) Generate() (string, error) {
	if g.machineDefinition == nil {
		return "", fmt.Errorf("no machine definition")
	}

	var dot strings.Builder

	dot.WriteString("digraph StateMachine {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	g.generateStates(&dot)
	g.generateTransitions(&dot)

	dot.WriteString("}\n")

	return dot.String(), nil
}

func (g *DOTGenerator) generateStates(dot *strings.Builder) {
	initialState := g.machineDefinition.InitialState()

	dot.WriteString("  // States\n")
	for _, stateID := range g.machineDefinition.States() {
		fillColor := aspectColor(stateID)
		label := stateID
		if g.options.ShowActions && g.machineDefinition.HasEntryAction(stateID) {
			label += "\\nentry /"
		}

		peripheries := 1
		if stateID == initialState {
			label += "\\n(initial)"
			peripheries = 2
		}

		dot.WriteString(fmt.Sprintf("  \"%s\" [style=\"filled\" fillcolor=%s peripheries=%d label=\"%s\"];\n",
			stateID, fillColor, peripheries, label))
	}
	dot.WriteString("\n")
}

func aspectColor(state string) string {
	switch signal.State(state) {
	case signal.Red:
		return "lightcoral"
	case signal.Yellow:
		return "lightyellow"
	case signal.Green:
		return "lightgreen"
	default:
		return "lightblue"
	}
}

func (g *DOTGenerator) generateTransitions(dot *strings.Builder) {
	dot.WriteString("  // Transitions\n")

	for _, from := range g.machineDefinition.States() {
		for _, t := range g.machineDefinition.Transitions(from) {
			label := t.EventName
			if g.options.ShowGuardConditions && t.Guard != nil {
				label += " [guard]"
			}
			if g.options.ShowActions && t.Action != nil {
				label += " / action"
			}
			dot.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\" style=%s];\n",
				from, t.TargetState, label, g.options.TransitionStyle))
		}
	}
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// PedestrianGraphDOT renders the pedestrian network with Graphviz node names
// taken from the sidewalk labels
func PedestrianGraphDOT(pg *geometry.PedestrianGraph) (string, error) {
	data, err := dotenc.Marshal(pg.Graph(), "pedestrians", "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal pedestrian graph: %w", err)
	}
	return string(data), nil
}

// SVGGenerator generates SVG representations by calling Graphviz
type SVGGenerator struct {
	dotGenerator *DOTGenerator
}

// NewSVGGenerator creates a new SVG generator
func NewSVGGenerator(machineDefinition *signal.Definition, options ...DOTOptions) *SVGGenerator {
	return &SVGGenerator{
		dotGenerator: NewDOTGenerator(machineDefinition, options...),
	}
}

// Generate creates an SVG representation of the state machine
func (g *SVGGenerator) Generate() (string, error) {
	dotContent, err := g.dotGenerator.Generate()
	if err != nil {
		return "", err
	}
	return RenderSVG(dotContent)
}

// RenderSVG converts DOT text to SVG with the Graphviz dot command
func RenderSVG(dotContent string) (string, error) {
	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}

// GenerateSVG creates an SVG representation of the state machine
func (g *DOTGenerator) GenerateSVG() (string, error) {
	svgGen := &SVGGenerator{dotGenerator: g}
	return svgGen.Generate()
}
