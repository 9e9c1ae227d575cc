package referenceframe

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"

	"go.viam.com/kinematics/spatialmath"
)

// pose is a struct which details the XML used in a URDF origin element. Lengths are in meters and
// rpy is a fixed-axis roll, pitch, yaw in radians.
type pose struct {
	XMLName xml.Name `xml:"origin"`
	XYZ     string   `xml:"xyz,attr"`
	RPY     string   `xml:"rpy,attr"`
}

// Parse converts an origin element to a pose. A missing element is the identity.
func (p *pose) Parse() (spatialmath.Pose, error) {
	if p == nil {
		return spatialmath.NewZeroPose(), nil
	}
	xyz, err := parseTriple(p.XYZ, "xyz")
	if err != nil {
		return nil, err
	}
	rpy, err := parseTriple(p.RPY, "rpy")
	if err != nil {
		return nil, err
	}
	return spatialmath.NewPose(
		r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]},
		&spatialmath.EulerAngles{Roll: rpy[0], Pitch: rpy[1], Yaw: rpy[2]},
	), nil
}

// axis is a struct which details the XML used in a URDF axis element.
type axis struct {
	XMLName xml.Name `xml:"axis"`
	XYZ     string   `xml:"xyz,attr"`
}

// Parse converts an axis element to a vector. URDF defaults a missing axis to +X.
func (a *axis) Parse() (r3.Vector, error) {
	if a == nil {
		return r3.Vector{X: 1}, nil
	}
	xyz, err := parseTriple(a.XYZ, "axis")
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// limit is a struct which details the XML used in a URDF limit element.
type limit struct {
	XMLName xml.Name `xml:"limit"`
	Lower   float64  `xml:"lower,attr"` // translation limits are in meters, revolute limits are in radians
	Upper   float64  `xml:"upper,attr"` // translation limits are in meters, revolute limits are in radians
}

type frame struct {
	Link string `xml:"link,attr"`
}

// parseTriple reads a three value attribute. An empty attribute is all zeros.
func parseTriple(s, attr string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return []float64{0, 0, 0}, nil
	}
	values := spaceDelimitedStringToFloatSlice(s)
	if len(values) != 3 {
		return nil, NewModelError("%s attribute %q needs 3 values", attr, s)
	}
	for _, v := range values {
		if math.IsNaN(v) {
			return nil, NewModelError("%s attribute %q is not numeric", attr, s)
		}
	}
	return values, nil
}

// spaceDelimitedStringToFloatSlice is a helper method to split up space-delimited fields in URDFs,
// such as xyz or rpy attributes. Values that do not parse become NaN.
func spaceDelimitedStringToFloatSlice(s string) []float64 {
	var converted []float64
	slice := strings.Fields(s)
	for _, value := range slice {
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			value = math.NaN()
		}
		converted = append(converted, value)
	}
	return converted
}
