// Package main runs the navigator: its HTTP API, and a few commands for trying a floor plan or the
// drive train by hand.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	// registers all hardware models.
	"github.com/talaria-robotics/navigator/components/base/wheeled"
	_ "github.com/talaria-robotics/navigator/components/register"
	"github.com/talaria-robotics/navigator/config"
	"github.com/talaria-robotics/navigator/floorplan"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/robot"
	"github.com/talaria-robotics/navigator/web"
)

const (
	flagConfig    = "config"
	flagDebug     = "debug"
	flagFloorPlan = "floor-plan"
	flagTurn      = "turn"
	flagForward   = "forward"
)

var logger = logging.NewLogger("navigator")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp(os.Stdout, logger).RunContext(ctx, os.Args); err != nil {
		logger.Error(err)
		stop()
		os.Exit(1)
	}
}

func newApp(out io.Writer, logger logging.Logger) *cli.App {
	configFlag := &cli.StringFlag{
		Name:     flagConfig,
		Aliases:  []string{"c"},
		Usage:    "load configuration from `FILE`",
		EnvVars:  []string{"NAVIGATOR_CONFIG"},
		Required: true,
	}
	return &cli.App{
		Name:            "navigator",
		Usage:           "deliver mail around a floor plan",
		Writer:          out,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			// .env is optional; variables it sets feed ${VAR} references in the config.
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return errors.Wrap(err, "failed to load .env")
			}
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the robot and serve its API",
				Flags:  []cli.Flag{configFlag},
				Action: func(c *cli.Context) error { return serveAction(c, logger) },
			},
			{
				Name:      "plan",
				Usage:     "print the tour a route over the given rooms would take",
				ArgsUsage: "ROOM...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagFloorPlan,
						Aliases:  []string{"f"},
						Usage:    "plan over the floor plan in `FILE`",
						Required: true,
					},
				},
				Action: planAction,
			},
			{
				Name:  "drive",
				Usage: "make a single move with the configured hardware",
				Flags: []cli.Flag{
					configFlag,
					&cli.Float64Flag{Name: flagTurn, Usage: "pivot by `DEGREES`, counter-clockwise positive"},
					&cli.Float64Flag{Name: flagForward, Usage: "drive `UNITS` straight, negative to reverse"},
				},
				Action: func(c *cli.Context) error { return driveAction(c, logger) },
			},
		},
	}
}

func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	conf, err := config.Read(c.Context, c.String(flagConfig), logger)
	if err != nil {
		return nil, err
	}
	if !c.Bool(flagDebug) {
		logger.SetLevel(conf.LogLevel)
	}
	return conf, nil
}

func serveAction(c *cli.Context, logger logging.Logger) (err error) {
	conf, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	feed := web.NewFeed(logger.Sublogger("feed"))
	r, err := robot.New(c.Context, conf, logger.Sublogger("robot"), robot.WithEventSink(feed))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := r.Close(context.Background()); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return web.NewServer(r, feed, logger.Sublogger("web")).ListenAndServe(c.Context, conf.Web.Address)
}

func planAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("name at least one room to plan a route over")
	}
	g, err := floorplan.ReadFile(c.String(flagFloorPlan))
	if err != nil {
		return err
	}
	plan, err := g.PlanTrip(c.Args().Slice())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "tour: %s\n", strings.Join(plan.Nodes, " > "))
	fmt.Fprintf(c.App.Writer, "length: %.2f\n", plan.Length)
	return nil
}

func driveAction(c *cli.Context, logger logging.Logger) (err error) {
	turn, forward := c.IsSet(flagTurn), c.IsSet(flagForward)
	if turn == forward {
		return errors.Errorf("give exactly one of --%s or --%s", flagTurn, flagForward)
	}
	conf, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	r, err := robot.New(c.Context, conf, logger.Sublogger("robot"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := r.Close(context.Background()); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	ctrl := r.Controller()
	start := r.RouteStatus().Pose
	var moved wheeled.WheelDisplacement
	if turn {
		moved, err = ctrl.Turn(c.Context, c.Float64(flagTurn))
	} else {
		moved, err = ctrl.Forward(c.Context, c.Float64(flagForward))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wheels: left %.1f° right %.1f°\n", moved.Left, moved.Right)
	if end, err := ctrl.Calibration().EstimatePose(start, moved); err == nil {
		fmt.Fprintf(c.App.Writer, "estimated pose: %s\n", end)
	} else {
		logger.Warnw("could not estimate the pose reached", "error", err)
	}
	return nil
}
