package referenceframe

import (
	"encoding/json"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/kinematics/spatialmath"
	"go.viam.com/kinematics/utils"
)

// World is the default root name of a model that does not name one.
const World = "world"

// ModelConfigJSON represents all supported fields in a kinematics JSON file.
type ModelConfigJSON struct {
	Name string `json:"name"`
	// Root is the frame the first element is attached to. Defaults to World.
	Root string `json:"root,omitempty"`
	// Tip is the element the chain ends at. Defaults to the single element with no children.
	Tip    string        `json:"tip,omitempty"`
	Links  []LinkConfig  `json:"links,omitempty"`
	Joints []JointConfig `json:"joints,omitempty"`
}

// LinkConfig is a rigid offset from its parent.
type LinkConfig struct {
	ID          string    `json:"id"`
	Parent      string    `json:"parent,omitempty"`
	Translation r3.Vector `json:"translation"`
	// Orientation is an axis angle whose angle is in degrees.
	Orientation *spatialmath.R4AA `json:"orientation,omitempty"`
}

// AxisConfig is the axis of a joint.
type AxisConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// JointConfig is a single-axis joint. Revolute limits are in degrees, prismatic limits are in the
// length unit of the model.
type JointConfig struct {
	ID     string     `json:"id"`
	Type   JointType  `json:"type"`
	Parent string     `json:"parent"`
	Axis   AxisConfig `json:"axis"`
	Max    float64    `json:"max"`
	Min    float64    `json:"min"`
}

// ParseConfig converts a link config into a fixed segment.
func (cfg LinkConfig) ParseConfig() Segment {
	var orientation spatialmath.Orientation = spatialmath.NewZeroOrientation()
	if cfg.Orientation != nil {
		orientation = &spatialmath.R4AA{
			Theta: utils.DegToRad(cfg.Orientation.Theta),
			RX:    cfg.Orientation.RX,
			RY:    cfg.Orientation.RY,
			RZ:    cfg.Orientation.RZ,
		}
	}
	return Segment{
		Name:   cfg.ID,
		Parent: cfg.Parent,
		Offset: spatialmath.NewPose(cfg.Translation, orientation),
		Joint:  Joint{Name: cfg.ID, Type: FixedJoint},
	}
}

// ParseConfig converts a joint config into a segment with no offset.
func (cfg JointConfig) ParseConfig() (Segment, error) {
	joint := Joint{
		Name:  cfg.ID,
		Type:  cfg.Type,
		Axis:  r3.Vector{X: cfg.Axis.X, Y: cfg.Axis.Y, Z: cfg.Axis.Z},
		Limit: Limit{Min: cfg.Min, Max: cfg.Max},
	}
	switch cfg.Type {
	case RevoluteJoint:
		joint.Limit = Limit{Min: utils.DegToRad(cfg.Min), Max: utils.DegToRad(cfg.Max)}
	case ContinuousJoint:
		joint.Type = RevoluteJoint
		joint.Limit = Limit{Min: math.Inf(-1), Max: math.Inf(1)}
	case PrismaticJoint, FixedJoint:
	default:
		return Segment{}, NewUnsupportedJointTypeError(string(cfg.Type))
	}
	return Segment{
		Name:   cfg.ID,
		Parent: cfg.Parent,
		Offset: spatialmath.NewZeroPose(),
		Joint:  joint,
	}, nil
}

// UnmarshalModelJSON will parse the given JSON data into a chain. modelName sets the name of the
// chain, the name from the JSON is used if it is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*Chain, error) {
	// empty data probably means that the caller has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}

	m := &ModelConfigJSON{}
	if err := json.Unmarshal(jsonData, m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}

	return m.ParseConfig(modelName)
}

// ParseModelJSONFile will read a given file and then parse the contained JSON data.
func ParseModelJSONFile(filename, modelName string) (*Chain, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName)
}

// ParseConfig converts the ModelConfigJSON struct into a chain with the name modelName.
func (cfg *ModelConfigJSON) ParseConfig(modelName string) (*Chain, error) {
	if modelName == "" {
		modelName = cfg.Name
	}
	root := cfg.Root
	if root == "" {
		root = World
	}

	segments := map[string]Segment{}
	// Make a map of parents for each element for post-process, to allow items to be processed out of order
	parentMap := map[string]string{}

	for _, link := range cfg.Links {
		if link.ID == root {
			return nil, NewModelError("link may not use the root name %q", root)
		}
		if _, ok := segments[link.ID]; ok {
			return nil, NewModelError("duplicate element id %q", link.ID)
		}
		if link.Parent == "" {
			link.Parent = root
		}
		parentMap[link.ID] = link.Parent
		segments[link.ID] = link.ParseConfig()
	}
	for _, joint := range cfg.Joints {
		if joint.ID == root {
			return nil, NewModelError("joint may not use the root name %q", root)
		}
		if _, ok := segments[joint.ID]; ok {
			return nil, NewModelError("duplicate element id %q", joint.ID)
		}
		seg, err := joint.ParseConfig()
		if err != nil {
			return nil, err
		}
		if joint.Parent == "" {
			seg.Parent = root
		}
		parentMap[joint.ID] = seg.Parent
		segments[joint.ID] = seg
	}

	ordered, err := sortTransforms(segments, parentMap, root, cfg.Tip)
	if err != nil {
		return nil, err
	}
	return NewChain(modelName, root, ordered)
}

// sortTransforms creates an ordered list of segments by walking parents from the tip to the root.
func sortTransforms(segments map[string]Segment, parents map[string]string, root, tip string) ([]Segment, error) {
	if len(segments) == 0 {
		return nil, ErrNoModelInformation
	}
	if tip == "" {
		// find the end effector first - determine which elements have no children
		ees := map[string]string{}
		for child, parent := range parents {
			ees[child] = parent
		}
		// now remove all parents
		for _, parent := range parents {
			delete(ees, parent)
		}
		if len(ees) != 1 {
			return nil, errors.Wrapf(ErrNeedOneEndEffector, "have %v", lo.Keys(ees))
		}
		tip = lo.Keys(ees)[0]
	}

	// start the search from the end effector
	curr := tip
	seen := map[string]bool{curr: true}
	ordered := []Segment{}
	for {
		seg, ok := segments[curr]
		if !ok {
			return nil, NewFrameNotInListOfTransformsError(curr)
		}
		ordered = append(ordered, seg)

		parent := parents[curr]
		if parent == root {
			break
		}
		// make sure it wasn't seen, mark it seen, then continue towards the root
		if seen[parent] {
			return nil, ErrCircularReference
		}
		seen[parent] = true
		curr = parent
	}

	if len(ordered) != len(segments) {
		onPath := lo.SliceToMap(ordered, func(s Segment) (string, bool) { return s.Name, true })
		offPath := lo.Filter(lo.Keys(segments), func(name string, _ int) bool { return !onPath[name] })
		return nil, NewModelError("elements %v are not on the path from %q to %q", offPath, root, tip)
	}

	// After the above loop, the segments are in reverse order, so we reverse the list.
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered, nil
}
