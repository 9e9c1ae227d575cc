package referenceframe

import (
	"encoding/xml"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// URDFConfig represents the fields of a Universal Robot Description Format (URDF) file that matter
// to a serial chain.
type URDFConfig struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Links   []URDFLink  `xml:"link"`
	Joints  []URDFJoint `xml:"joint"`
}

// URDFLink is a struct which details the XML used in a URDF link element.
type URDFLink struct {
	XMLName xml.Name `xml:"link"`
	Name    string   `xml:"name,attr"`
}

// URDFJoint is a struct which details the XML used in a URDF joint element.
type URDFJoint struct {
	XMLName xml.Name `xml:"joint"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Parent  frame    `xml:"parent"`
	Child   frame    `xml:"child"`
	Origin  *pose    `xml:"origin,omitempty"`
	Axis    *axis    `xml:"axis,omitempty"`
	Limit   *limit   `xml:"limit,omitempty"`
}

// ParseURDFFile will read a given file and build the chain between the root and tip links.
func ParseURDFFile(filename, root, tip string) (*Chain, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	return ParseURDF(xmlData, root, tip)
}

// ParseURDF builds the serial chain between the root and tip links of a URDF robot. Joints that are
// not on the path between them are ignored. An empty root selects the link that is no joint's
// child, and an empty tip selects the only link that is no joint's parent. Lengths stay in meters.
func ParseURDF(xmlData []byte, root, tip string) (*Chain, error) {
	// empty data probably means that the read URDF has no actionable information
	if len(xmlData) == 0 {
		return nil, ErrNoModelInformation
	}
	urdf := &URDFConfig{}
	if err := xml.Unmarshal(xmlData, urdf); err != nil {
		return nil, errors.Wrap(err, "failed to convert URDF data to equivalent URDFConfig struct")
	}

	jointByChild := map[string]URDFJoint{}
	isParent := map[string]bool{}
	links := lo.Map(urdf.Links, func(l URDFLink, _ int) string { return l.Name })
	for _, j := range urdf.Joints {
		if other, ok := jointByChild[j.Child.Link]; ok {
			return nil, NewModelError("link %q is the child of both %q and %q", j.Child.Link, other.Name, j.Name)
		}
		jointByChild[j.Child.Link] = j
		isParent[j.Parent.Link] = true
		links = append(links, j.Parent.Link, j.Child.Link)
	}
	links = lo.Uniq(links)

	if root == "" {
		roots := lo.Filter(links, func(l string, _ int) bool { _, ok := jointByChild[l]; return !ok })
		if len(roots) != 1 {
			return nil, NewModelError("cannot choose a root link from %v", roots)
		}
		root = roots[0]
	}
	if tip == "" {
		leaves := lo.Filter(links, func(l string, _ int) bool { return !isParent[l] })
		if len(leaves) != 1 {
			return nil, errors.Wrapf(ErrNeedOneEndEffector, "have %v", leaves)
		}
		tip = leaves[0]
	}

	// walk from the tip to the root, the same way a tree is reduced to a chain
	path := []URDFJoint{}
	seen := map[string]bool{}
	for curr := tip; curr != root; {
		if seen[curr] {
			return nil, ErrCircularReference
		}
		seen[curr] = true
		j, ok := jointByChild[curr]
		if !ok {
			return nil, NewModelError("tip link %q does not reach root link %q", tip, root)
		}
		path = append(path, j)
		curr = j.Parent.Link
	}
	if len(path) == 0 {
		return nil, NewModelError("root and tip are both %q", root)
	}

	segments := make([]Segment, 0, len(path))
	for i := len(path) - 1; i >= 0; i-- {
		seg, err := path[i].toSegment()
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return NewChain(urdf.Name, root, segments)
}

// toSegment converts a joint and its child link to a segment named after the child link.
func (j URDFJoint) toSegment() (Segment, error) {
	offset, err := j.Origin.Parse()
	if err != nil {
		return Segment{}, err
	}
	joint := Joint{Name: j.Name, Type: JointType(j.Type)}

	switch joint.Type {
	case RevoluteJoint, PrismaticJoint:
		if j.Limit == nil {
			return Segment{}, NewModelError("%s joint %q has no limit element", j.Type, j.Name)
		}
		joint.Limit = Limit{Min: j.Limit.Lower, Max: j.Limit.Upper}
	case ContinuousJoint:
		// Currently, we treat a continuous joint as a special case of a revolute joint
		joint.Type = RevoluteJoint
		joint.Limit = Limit{Min: math.Inf(-1), Max: math.Inf(1)}
	case FixedJoint:
	default:
		return Segment{}, NewUnsupportedJointTypeError(j.Type)
	}
	if joint.Movable() {
		if joint.Axis, err = j.Axis.Parse(); err != nil {
			return Segment{}, err
		}
	}

	return Segment{
		Name:   j.Child.Link,
		Parent: j.Parent.Link,
		Offset: offset,
		Joint:  joint,
	}, nil
}
