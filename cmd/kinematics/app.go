package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/kinematics/logging"
	"go.viam.com/kinematics/services/kinematics"
	"go.viam.com/kinematics/spatialmath"
)

const (
	flagConfig      = "config"
	flagDebug       = "debug"
	flagListen      = "listen"
	flagJoints      = "joints"
	flagLinks       = "links"
	flagTwist       = "twist"
	flagPosition    = "position"
	flagOrientation = "orientation"
	flagFrame       = "frame"
)

func jointsFlag(usage string) cli.Flag {
	return &cli.Float64SliceFlag{
		Name:     flagJoints,
		Aliases:  []string{"q"},
		Usage:    usage,
		Required: true,
	}
}

// newApp returns the command line app. Results are printed to out as JSON and logs go to stderr.
func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:            "kinematics",
		Usage:           "forward and inverse kinematics of a serial chain",
		HideHelpCommand: true,
		Writer:          out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Usage:    "load configuration from `FILE` (yaml or json)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagListen,
						Usage: "`ADDRESS` to listen on, overriding the config",
					},
				},
				Action: serveAction,
			},
			{
				Name:   "info",
				Usage:  "print the chain's joints, limits and links",
				Action: infoAction,
			},
			{
				Name:  "fk",
				Usage: "print link poses at a joint configuration",
				Flags: []cli.Flag{
					jointsFlag("joint values in chain order"),
					&cli.StringSliceFlag{
						Name:  flagLinks,
						Usage: "links to report, defaults to the tip",
					},
				},
				Action: fkAction,
			},
			{
				Name:  "vik",
				Usage: "print joint velocities producing a tip twist",
				Flags: []cli.Flag{
					jointsFlag("joint values in chain order"),
					&cli.Float64SliceFlag{
						Name:     flagTwist,
						Usage:    "tip twist vx,vy,vz,wx,wy,wz in the root frame",
						Required: true,
					},
				},
				Action: velocityIKAction,
			},
			{
				Name:  "ik",
				Usage: "solve for the joint values placing the tip at a pose",
				Flags: []cli.Flag{
					jointsFlag("seed joint values in chain order"),
					&cli.Float64SliceFlag{
						Name:     flagPosition,
						Usage:    "goal position x,y,z",
						Required: true,
					},
					&cli.Float64SliceFlag{
						Name:  flagOrientation,
						Usage: "goal orientation as an axis angle th,x,y,z in radians",
					},
					&cli.StringFlag{
						Name:  flagFrame,
						Usage: "frame the goal is given in, defaults to the chain root",
					},
				},
				Action: positionIKAction,
			},
		},
	}
}

func newService(c *cli.Context) (*kinematics.Service, *kinematics.Config, error) {
	cfg, err := kinematics.ReadConfig(c.String(flagConfig))
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger()
	if c.Bool(flagDebug) {
		cfg.LogLevel = logging.DEBUG.String()
	}
	svc, err := kinematics.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func newLogger() logging.Logger {
	logger := logging.NewBlankLogger("kinematics")
	logger.SetLevel(logging.INFO)
	logger.AddAppender(logging.NewWriterAppender(os.Stderr))
	return logger
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveAction(c *cli.Context) error {
	svc, cfg, err := newService(c)
	if err != nil {
		return err
	}
	addr := c.String(flagListen)
	if addr == "" {
		addr = cfg.Listen
	}
	if addr == "" {
		addr = kinematics.DefaultListenAddress
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              addr,
		Handler:           kinematics.NewHandler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger := newLogger()
	logger.Infow("serving", "address", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func infoAction(c *cli.Context) error {
	svc, _, err := newService(c)
	if err != nil {
		return err
	}
	info, err := svc.GetSolverInfo(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, info)
}

func fkAction(c *cli.Context) error {
	svc, _, err := newService(c)
	if err != nil {
		return err
	}
	resp, err := svc.ComputeFK(c.Context, kinematics.FKRequest{
		JointState: kinematics.JointState{Positions: c.Float64Slice(flagJoints)},
		LinkNames:  c.StringSlice(flagLinks),
	})
	if err != nil {
		return err
	}
	return printJSON(c, resp)
}

func velocityIKAction(c *cli.Context) error {
	svc, _, err := newService(c)
	if err != nil {
		return err
	}
	resp, err := svc.ComputeVelocityIK(c.Context, kinematics.VelocityIKRequest{
		JointState: kinematics.JointState{Positions: c.Float64Slice(flagJoints)},
		Twist:      c.Float64Slice(flagTwist),
	})
	if err != nil {
		return err
	}
	return printJSON(c, resp)
}

func positionIKAction(c *cli.Context) error {
	svc, _, err := newService(c)
	if err != nil {
		return err
	}
	position := c.Float64Slice(flagPosition)
	if len(position) != 3 {
		return errors.Errorf("--%s needs 3 values, got %d", flagPosition, len(position))
	}
	pose := kinematics.Pose{Position: kinematics.Point{X: position[0], Y: position[1], Z: position[2]}}
	if orientation := c.Float64Slice(flagOrientation); len(orientation) > 0 {
		if len(orientation) != 4 {
			return errors.Errorf("--%s needs 4 values, got %d", flagOrientation, len(orientation))
		}
		pose.Orientation = &spatialmath.R4AA{Theta: orientation[0], RX: orientation[1], RY: orientation[2], RZ: orientation[3]}
	}

	resp, err := svc.ComputePositionIK(c.Context, kinematics.PositionIKRequest{
		Seed:    kinematics.JointState{Positions: c.Float64Slice(flagJoints)},
		Pose:    pose,
		FrameID: c.String(flagFrame),
	})
	if resp != nil {
		if printErr := printJSON(c, resp); printErr != nil {
			return printErr
		}
	}
	return err
}
