// Package sh provides the interactive shell driving an in-process harness.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"reflect"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/protobuf/proto"

	"github.com/maxmix/maxmix.go/pkg/device"
	"github.com/maxmix/maxmix.go/pkg/harness"
	"github.com/maxmix/maxmix.go/pkg/msgs"
)

// RequestTimeout limits the wait for the loop to pick up a request.
const RequestTimeout = time.Second

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Driver *harness.Driver

	cancel func()
	doneCh chan error
}

// Status is a snapshot of the device state.
type Status struct {
	Settings    *msgs.Settings    `json:"settings"`
	SessionInfo *msgs.SessionInfo `json:"session_info"`
	Previous    *msgs.Session     `json:"previous"`
	Current     *msgs.Session     `json:"current"`
	Next        *msgs.Session     `json:"next"`
	Screen      *msgs.Screen      `json:"screen"`
	Stats       harness.Stats     `json:"stats"`
}

const (
	shellKey      = "$shell"
	runningPrompt = "maxmix > "
	stoppedPrompt = "[stopped] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&StatusCmd,
		&SendCmd,
		&BroadcastCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(d *harness.Driver) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Driver: d,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(stoppedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Start runs the driver in background.
func (s *Shell) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.doneCh = make(chan error, 1)
	go func(doneCh chan error) {
		err := s.Driver.Run(ctx)
		if err != context.Canceled {
			s.Shell.Printf("harness stopped: %v\n", err)
			s.Shell.SetPrompt(stoppedPrompt)
		}
		doneCh <- err
	}(s.doneCh)
	s.Shell.SetPrompt(runningPrompt)
}

// Stop stops the driver and waits for it to exit.
func (s *Shell) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.cancel = nil
	if err := <-s.doneCh; err != context.Canceled {
		return err
	}
	return nil
}

// IsRunning indicates the driver is running.
func (s *Shell) IsRunning() bool {
	if s.cancel == nil {
		return false
	}
	select {
	case err := <-s.doneCh:
		s.doneCh <- err
		return false
	default:
		return true
	}
}

// MustBeRunning wraps command func requires a running driver.
func MustBeRunning(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if !ShellFrom(c).IsRunning() {
			c.Err(fmt.Errorf("harness not running"))
			return
		}
		fn(c)
	}
}

// DoRequest runs fn on the loop and waits for result.
func DoRequest(c *ishell.Context, fn harness.Request) error {
	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()
	err := ShellFrom(c).Driver.Do(ctx, fn)
	if err == context.DeadlineExceeded {
		err = fmt.Errorf("request timeout")
	}
	if err != nil {
		c.Err(err)
	}
	return err
}

// Print prints a message in the selected format.
func Print(c *ishell.Context, msg proto.Message) {
	if ShellFrom(c).OutputJSON {
		PrintJSON(c, msg)
		return
	}
	c.Printf("%s %s\n", reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
}

// PrintJSON prints v as JSON.
func PrintJSON(c *ishell.Context, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Snapshot copies the state. It must be called on the loop.
func Snapshot(d *harness.Driver, s *device.State) *Status {
	settings, info, screen := s.Settings, s.SessionInfo, s.Screen
	prev, cur, next := *s.Sessions.Previous(), *s.Sessions.Current(), *s.Sessions.Next()
	return &Status{
		Settings:    &settings,
		SessionInfo: &info,
		Previous:    &prev,
		Current:     &cur,
		Next:        &next,
		Screen:      &screen,
		Stats:       d.Stats(),
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	s.Start(context.Background())
	defer s.Stop()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// StatusCmd prints the device state.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: MustBeRunning(func(c *ishell.Context) {
			s := ShellFrom(c)
			var st *Status
			if DoRequest(c, func(state *device.State, _ device.Writer) error {
				st = Snapshot(s.Driver, state)
				return nil
			}) != nil {
				return
			}
			if s.OutputJSON {
				PrintJSON(c, st)
				return
			}
			Print(c, st.Settings)
			Print(c, st.SessionInfo)
			c.Printf("PREVIOUS %s\nCURRENT %s\nNEXT %s\n", st.Previous, st.Current, st.Next)
			Print(c, st.Screen)
			c.Printf("iterations=%d broadcasts=%d\n", st.Stats.Iterations, st.Stats.Broadcasts)
		}),
	}

	// SendCmd writes a single message type.
	SendCmd = ishell.Cmd{
		Name:      "send",
		Aliases:   []string{"s"},
		Help:      "TYPE",
		Completer: completeTypes,
		Func: MustBeRunning(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TYPE required"))
				return
			}
			t, err := ResolveType(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if DoRequest(c, func(_ *device.State, w device.Writer) error {
				return w.Write(t)
			}) == nil {
				c.Println("OK")
			}
		}),
	}

	// BroadcastCmd writes the full state immediately.
	BroadcastCmd = ishell.Cmd{
		Name:    "broadcast",
		Aliases: []string{"b"},
		Help:    "",
		Func: MustBeRunning(func(c *ishell.Context) {
			d := ShellFrom(c).Driver
			if DoRequest(c, func(*device.State, device.Writer) error {
				return d.Broadcast()
			}) == nil {
				c.Println("OK")
			}
		}),
	}
)
