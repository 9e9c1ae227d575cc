package kinematics

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"

	"go.viam.com/kinematics/kinematics"
	"go.viam.com/kinematics/logging"
	"go.viam.com/kinematics/referenceframe"
	"go.viam.com/kinematics/spatialmath"
)

// ErrUnknownLink is returned when a forward kinematics request names a link not in the chain.
var ErrUnknownLink = errors.New("unknown link")

// Error codes reported with position inverse kinematics results.
const (
	ErrorCodeSuccess       = "SUCCESS"
	ErrorCodeNoConvergence = "NO_CONVERGENCE"
)

// Operation names used in logs and metrics.
const (
	opSolverInfo = "solver_info"
	opFK         = "fk"
	opVelocityIK = "velocity_ik"
	opPositionIK = "position_ik"
)

// Point is a position in the JSON messages of the service.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pose is a position and an axis-angle orientation in radians. A nil orientation is the identity.
type Pose struct {
	Position    Point             `json:"position"`
	Orientation *spatialmath.R4AA `json:"orientation,omitempty"`
}

// NewPose converts a spatialmath pose to its message form.
func NewPose(p spatialmath.Pose) Pose {
	pt := p.Point()
	return Pose{
		Position:    Point{X: pt.X, Y: pt.Y, Z: pt.Z},
		Orientation: p.Orientation().AxisAngles(),
	}
}

// SpatialPose converts the message back to a spatialmath pose.
func (p Pose) SpatialPose() spatialmath.Pose {
	pt := r3.Vector{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z}
	if p.Orientation == nil {
		return spatialmath.NewPoseFromPoint(pt)
	}
	return spatialmath.NewPose(pt, p.Orientation)
}

// JointState holds joint positions or velocities. With no names the values are in chain order;
// otherwise each value belongs to the joint of the same index in Names and joints not in the chain
// are ignored.
type JointState struct {
	Names     []string  `json:"names,omitempty"`
	Positions []float64 `json:"positions"`
}

// JointLimit is one joint's range. An unbounded side is omitted.
type JointLimit struct {
	Name string                   `json:"name"`
	Type referenceframe.JointType `json:"type"`
	Min  *float64                 `json:"min,omitempty"`
	Max  *float64                 `json:"max,omitempty"`
}

// SolverInfo describes the chain being solved.
type SolverInfo struct {
	Name           string                        `json:"name"`
	Root           string                        `json:"root"`
	Tip            string                        `json:"tip"`
	JointNames     []string                      `json:"joint_names"`
	Limits         []JointLimit                  `json:"limits"`
	LinkNames      []string                      `json:"link_names"`
	VelocitySolver kinematics.VelocitySolverType `json:"velocity_solver"`
}

// FKRequest asks for the poses of links at a joint state. No link names means the tip.
type FKRequest struct {
	JointState JointState `json:"joint_state"`
	LinkNames  []string   `json:"link_names,omitempty"`
}

// LinkPose is the pose of one link in the root frame.
type LinkPose struct {
	Link    string `json:"link"`
	FrameID string `json:"frame_id"`
	Pose    Pose   `json:"pose"`
	// Matrix is the same pose as a row-major homogeneous transform.
	Matrix [][]float64 `json:"matrix"`
}

// FKResponse holds one pose per requested link, in request order.
type FKResponse struct {
	Poses []LinkPose `json:"poses"`
}

// VelocityIKRequest asks for the joint velocities producing a tip twist (vx, vy, vz, wx, wy, wz)
// in the root frame.
type VelocityIKRequest struct {
	JointState JointState `json:"joint_state"`
	Twist      []float64  `json:"twist"`
}

// VelocityIKResponse holds joint velocities in chain order.
type VelocityIKResponse struct {
	JointNames []string  `json:"joint_names"`
	Velocities []float64 `json:"velocities"`
}

// PositionIKRequest asks for joint positions placing the tip at Pose, given in frame FrameID. An
// empty FrameID is the chain root.
type PositionIKRequest struct {
	Seed    JointState `json:"seed"`
	Pose    Pose       `json:"pose"`
	FrameID string     `json:"frame_id,omitempty"`
}

// PositionIKResponse is a solution, or the best effort when ErrorCode is ErrorCodeNoConvergence.
type PositionIKResponse struct {
	JointState JointState `json:"joint_state"`
	// Residual is the remaining pose error (vx, vy, vz, wx, wy, wz) in the root frame.
	Residual   []float64 `json:"residual"`
	Iterations int       `json:"iterations"`
	Clamped    []bool    `json:"clamped"`
	ErrorCode  string    `json:"error_code"`
}

// Service answers kinematics requests for one chain. It is safe for concurrent use.
type Service struct {
	chain   *referenceframe.Chain
	cfg     kinematics.SolverConfig
	fk      *kinematics.ForwardSolver
	vel     *kinematics.VelocitySolver
	ik      *kinematics.CombinedSolver
	frames  FrameLookup
	logger  logging.Logger
	metrics *serviceMetrics
}

// New returns a service for chain. frames may be nil, in which case position requests must be
// given in the root frame.
func New(chain *referenceframe.Chain, cfg kinematics.SolverConfig, frames FrameLookup, logger logging.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("kinematics")
	}
	ik, err := kinematics.NewCombinedSolver(chain, cfg, logger.Sublogger("ik"))
	if err != nil {
		return nil, err
	}
	vel, err := kinematics.NewVelocitySolver(chain, cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		chain:   chain,
		cfg:     cfg,
		fk:      kinematics.NewForwardSolver(chain),
		vel:     vel,
		ik:      ik,
		frames:  frames,
		logger:  logger,
		metrics: newServiceMetrics(),
	}, nil
}

// NewFromConfig loads the configured model and frames and returns a service for them.
func NewFromConfig(cfg *Config, logger logging.Logger) (*Service, error) {
	if err := cfg.Validate("kinematics"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewLogger("kinematics")
	}
	if cfg.LogLevel != "" {
		level, err := logging.LevelFromString(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		logger.SetLevel(level)
	}
	chain, err := cfg.Model.Chain()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load model")
	}
	frames, err := NewStaticFrameLookup(cfg.Frames)
	if err != nil {
		return nil, err
	}
	logger.Infow("loaded chain",
		"name", chain.Name(), "root", chain.RootName(), "tip", chain.TipName(), "joints", chain.NumJoints())
	return New(chain, cfg.Solver, frames, logger)
}

// Chain returns the chain being solved.
func (s *Service) Chain() *referenceframe.Chain {
	return s.chain
}

// Registry returns the registry holding the service's metrics.
func (s *Service) Registry() *prometheus.Registry {
	return s.metrics.registry
}

// GetSolverInfo describes the chain. It does no computation.
func (s *Service) GetSolverInfo(ctx context.Context) (*SolverInfo, error) {
	s.logger.Debugw("request", "operation", opSolverInfo)
	s.metrics.observe(opSolverInfo, nil)
	names := s.chain.JointNames()
	types := s.chain.JointTypes()
	limits := lo.Map(s.chain.DoF(), func(limit referenceframe.Limit, i int) JointLimit {
		jl := JointLimit{Name: names[i], Type: types[i]}
		if !math.IsInf(limit.Min, 0) {
			jl.Min = &limit.Min
		}
		if !math.IsInf(limit.Max, 0) {
			jl.Max = &limit.Max
		}
		return jl
	})
	return &SolverInfo{
		Name:           s.chain.Name(),
		Root:           s.chain.RootName(),
		Tip:            s.chain.TipName(),
		JointNames:     names,
		Limits:         limits,
		LinkNames:      s.chain.LinkNames(),
		VelocitySolver: s.cfg.VelocitySolver,
	}, nil
}

// ComputeFK returns the pose of each requested link in the root frame. The root itself may be
// requested and is the identity.
func (s *Service) ComputeFK(ctx context.Context, req FKRequest) (resp *FKResponse, err error) {
	s.logger.Debugw("request", "operation", opFK, "links", req.LinkNames)
	defer func() { s.metrics.observe(opFK, err) }()

	inputs, err := s.inputs(req.JointState)
	if err != nil {
		return nil, err
	}
	links := req.LinkNames
	if len(links) == 0 {
		links = []string{s.chain.TipName()}
	}
	resp = &FKResponse{Poses: make([]LinkPose, 0, len(links))}
	for _, link := range links {
		pose := spatialmath.NewZeroPose()
		if link != s.chain.RootName() {
			idx, ok := s.chain.SegmentIndex(link)
			if !ok {
				return nil, errors.Wrapf(ErrUnknownLink, "%q is not in chain %q", link, s.chain.Name())
			}
			if pose, err = s.fk.SolveSegment(inputs, idx); err != nil {
				return nil, err
			}
		}
		resp.Poses = append(resp.Poses, LinkPose{
			Link:    link,
			FrameID: s.chain.RootName(),
			Pose:    NewPose(pose),
			Matrix:  spatialmath.MatrixRows(spatialmath.PoseToMatrix(pose)),
		})
	}
	return resp, nil
}

// ComputeVelocityIK returns the joint velocities that best produce the requested tip twist.
func (s *Service) ComputeVelocityIK(ctx context.Context, req VelocityIKRequest) (resp *VelocityIKResponse, err error) {
	s.logger.Debugw("request", "operation", opVelocityIK, "twist", req.Twist)
	defer func() { s.metrics.observe(opVelocityIK, err) }()

	inputs, err := s.inputs(req.JointState)
	if err != nil {
		return nil, err
	}
	qdot, err := s.vel.Solve(inputs, req.Twist)
	if err != nil {
		return nil, err
	}
	return &VelocityIKResponse{JointNames: s.chain.JointNames(), Velocities: qdot}, nil
}

// ComputePositionIK solves for the requested pose. When the solve does not converge the response
// holds the best effort with ErrorCodeNoConvergence, and the error wraps
// kinematics.ErrNoConvergence.
func (s *Service) ComputePositionIK(ctx context.Context, req PositionIKRequest) (resp *PositionIKResponse, err error) {
	s.logger.Debugw("request", "operation", opPositionIK, "frame_id", req.FrameID)
	defer func() { s.metrics.observe(opPositionIK, err) }()

	seed, err := s.inputs(req.Seed)
	if err != nil {
		return nil, err
	}
	goal, err := s.rootPose(ctx, req.Pose.SpatialPose(), req.FrameID)
	if err != nil {
		return nil, err
	}

	sol, err := s.ik.Solve(ctx, goal, seed)
	if sol == nil {
		return nil, err
	}
	s.metrics.iterations.Observe(float64(sol.Iterations))
	resp = &PositionIKResponse{
		JointState: JointState{
			Names:     s.chain.JointNames(),
			Positions: referenceframe.InputsToFloats(sol.Configuration),
		},
		Residual:   sol.Residual.Vector(),
		Iterations: sol.Iterations,
		Clamped:    sol.Clamped,
		ErrorCode:  ErrorCodeSuccess,
	}
	if err != nil {
		resp.ErrorCode = ErrorCodeNoConvergence
		s.logger.Debugw("position ik did not converge", "error", err)
	}
	return resp, err
}

func (s *Service) rootPose(ctx context.Context, pose spatialmath.Pose, frameID string) (spatialmath.Pose, error) {
	if frameID == "" || frameID == s.chain.RootName() {
		return pose, nil
	}
	if s.frames == nil {
		return nil, errors.Wrapf(ErrUnknownFrame, "%q; no frames are configured", frameID)
	}
	return s.frames.TransformPose(ctx, pose, frameID, s.chain.RootName())
}

// inputs orders a joint state by the chain's joints.
func (s *Service) inputs(js JointState) ([]referenceframe.Input, error) {
	if len(js.Names) == 0 {
		inputs := referenceframe.FloatsToInputs(js.Positions)
		if err := s.chain.CheckInputs(inputs); err != nil {
			return nil, err
		}
		return inputs, nil
	}
	if len(js.Names) != len(js.Positions) {
		return nil, referenceframe.NewIncorrectLengthError("joint state positions", len(js.Positions), len(js.Names))
	}
	inputs := make([]referenceframe.Input, s.chain.NumJoints())
	set := make([]bool, len(inputs))
	for i, name := range js.Names {
		if idx, ok := s.chain.JointIndex(name); ok {
			inputs[idx] = referenceframe.Input{Value: js.Positions[i]}
			set[idx] = true
		}
	}
	for i, ok := range set {
		if !ok {
			return nil, errors.Wrapf(referenceframe.ErrDimension, "joint state is missing joint %q", s.chain.JointNames()[i])
		}
	}
	return inputs, nil
}

func isNoConvergence(err error) bool {
	return errors.Is(err, kinematics.ErrNoConvergence)
}
