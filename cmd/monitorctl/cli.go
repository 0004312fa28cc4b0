package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/taoyao-code/monitorctl/internal/app"
	"github.com/taoyao-code/monitorctl/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/monitorctl/internal/config"
	"github.com/taoyao-code/monitorctl/internal/logging"
	"github.com/taoyao-code/monitorctl/internal/monitor"
	"github.com/taoyao-code/monitorctl/internal/preset"
	"github.com/taoyao-code/monitorctl/internal/property"
	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
)

// 退出码
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

// command 子命令
type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands = []command{
	{"get", "get <property>", "read a property", runGet},
	{"set", "set <property> <value>", "write a property", runSet},
	{"up", "up <property>", "step a property to the next value", runStep(property.Up)},
	{"down", "down <property>", "step a property to the previous value", runStep(property.Down)},
	{"action", "action <name>", "run a reset action", runAction},
	{"list", "list [--values] [--group g]", "list properties", runList},
	{"query", "query [--write] <opcode> [hex]", "send a raw command", runQuery},
	{"search", "search [--from 0x00] [--to 0xFF]", "scan opcodes the monitor answers", runSearch},
	{"preset", "preset list | show <name> | apply <name>", "manage presets", runPreset},
	{"serve", "serve [--addr :8080]", "run the HTTP control API", runServe},
	{"version", "version", "print the version", runVersion},
}

// cli 一次命令行调用的上下文
type cli struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *cfgpkg.Config
	log    *zap.Logger

	// newController 测试中替换为模拟设备
	newController func(cfg *cfgpkg.Config, log *zap.Logger) *monitor.Controller
	ctrl          *monitor.Controller
}

func defaultController(cfg *cfgpkg.Config, log *zap.Logger) *monitor.Controller {
	return app.NewDevice(cfg.Serial, app.DeviceDeps{}, log).Controller
}

func (c *cli) controller() *monitor.Controller {
	if c.ctrl == nil {
		c.ctrl = c.newController(c.cfg, c.log)
	}
	return c.ctrl
}

// run 解析全局参数并执行子命令，返回退出码
func run(ctx context.Context, args []string, stdout, stderr io.Writer, newController func(*cfgpkg.Config, *zap.Logger) *monitor.Controller) int {
	if newController == nil {
		newController = defaultController
	}
	fs := pflag.NewFlagSet("monitorctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	configPath := fs.StringP("config", "c", "", "config file (yaml/toml/json)")
	fs.String("device", "/dev/ttyS0", "serial device name")
	fs.Int("baud", 9600, "serial baud rate")
	fs.Duration("timeout", 0, "reply wait, e.g. 200ms")
	fs.String("log-level", "", "debug | info | warn | error (commands default to warn)")
	fs.String("presets", "", "presets file")
	showVersion := fs.Bool("version", false, "print the version and exit")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *showVersion {
		fmt.Fprintf(stdout, "monitorctl %s\n", version)
		return exitOK
	}
	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr, fs)
		return exitUsage
	}
	cmd, ok := lookup(rest[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		usage(stderr, fs)
		return exitUsage
	}

	cfg, err := cfgpkg.Load(*configPath, fs)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	// 除服务模式外只输出告警
	if cmd.name != "serve" && !fs.Changed("log-level") {
		cfg.Logging.Level = "warn"
	}
	log, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	defer func() { _ = log.Sync() }()

	c := &cli{stdout: stdout, stderr: stderr, cfg: cfg, log: log, newController: newController}
	if err := cmd.run(ctx, c, rest[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "usage: monitorctl %s\n", cmd.usage)
			return exitUsage
		}
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error [%s]: %v\n", monitor.Kind(err), err)
		return exitError
	}
	return exitOK
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "DELL P4317Q monitor controller.\n\nusage: monitorctl [flags] <command> [args]\n\ncommands:\n")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, cmd := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.usage, cmd.summary)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nflags:\n%s", fs.FlagUsages())
}

// subFlags 子命令参数，兼容 --type/--value 写法
type subFlags struct {
	fs    *pflag.FlagSet
	typ   *string
	value *string
}

func newSubFlags(c *cli, name string) *subFlags {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return &subFlags{
		fs:    fs,
		typ:   fs.StringP("type", "t", "", "property name"),
		value: fs.StringP("value", "v", "", "value"),
	}
}

// positional 合并 --type、位置参数与 --value，要求恰好 n 个
func (s *subFlags) positional(args []string, n int) ([]string, error) {
	if err := s.fs.Parse(args); err != nil {
		return nil, err
	}
	var out []string
	if *s.typ != "" {
		out = append(out, *s.typ)
	}
	out = append(out, s.fs.Args()...)
	if s.fs.Changed("value") {
		out = append(out, *s.value)
	}
	if len(out) != n {
		return nil, errUsage
	}
	return out, nil
}

func runGet(ctx context.Context, c *cli, args []string) error {
	pos, err := newSubFlags(c, "get").positional(args, 1)
	if err != nil {
		return err
	}
	ctrl := c.controller()
	d, err := ctrl.Registry().Resolve(pos[0])
	if err != nil {
		return err
	}
	v, err := ctrl.Get(ctx, d.Name)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, d.Codec.Format(v))
	return nil
}

func runSet(ctx context.Context, c *cli, args []string) error {
	pos, err := newSubFlags(c, "set").positional(args, 2)
	if err != nil {
		return err
	}
	ctrl := c.controller()
	d, err := ctrl.Registry().Resolve(pos[0])
	if err != nil {
		return err
	}
	v, err := ctrl.SetText(ctx, d.Name, pos[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s = %s\n", d.Name, d.Codec.Format(v))
	return nil
}

func runStep(step property.Step) func(ctx context.Context, c *cli, args []string) error {
	return func(ctx context.Context, c *cli, args []string) error {
		pos, err := newSubFlags(c, step.String()).positional(args, 1)
		if err != nil {
			return err
		}
		ctrl := c.controller()
		d, err := ctrl.Registry().Resolve(pos[0])
		if err != nil {
			return err
		}
		v, err := ctrl.Step(ctx, d.Name, step)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%s = %s\n", d.Name, d.Codec.Format(v))
		return nil
	}
}

func runAction(ctx context.Context, c *cli, args []string) error {
	pos, err := newSubFlags(c, "action").positional(args, 1)
	if err != nil {
		return err
	}
	if err := c.controller().Invoke(ctx, pos[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s done\n", property.NormalizeName(pos[0]))
	return nil
}

func runList(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	values := fs.Bool("values", false, "read the current value of every readable property")
	group := fs.String("group", "", "only list one group")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return errUsage
	}

	ctrl := c.controller()
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if !*values {
		fmt.Fprintln(tw, "NAME\tGROUP\tOPCODE\tACCESS\tPOLICY\tVALUES")
		for _, d := range ctrl.Registry().All() {
			if *group != "" && d.Group != *group {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t0x%02X\t%s\t%s\t%s\n", d.Name, d.Group, d.Opcode, d.Access, d.Policy, domain(d))
		}
		return nil
	}

	readings, err := ctrl.ReadAll(ctx)
	fmt.Fprintln(tw, "NAME\tVALUE")
	for _, r := range readings {
		if *group != "" && r.Descriptor.Group != *group {
			continue
		}
		text := r.Text()
		if r.Err != nil {
			text = "<" + monitor.Kind(r.Err) + ">"
		}
		fmt.Fprintf(tw, "%s\t%s\n", r.Descriptor.Name, text)
	}
	return err
}

// domain 值域的简短描述
func domain(d *property.Descriptor) string {
	switch codec := d.Codec.(type) {
	case *property.Range:
		if codec.Bounded {
			return fmt.Sprintf("%d..%d", codec.Min, codec.Max)
		}
		return "uint"
	case *property.Enum:
		names := make([]string, 0, len(codec.Members()))
		for _, m := range codec.Members() {
			names = append(names, m.Name)
		}
		return strings.Join(names, "|")
	case *property.RGBCodec:
		return fmt.Sprintf("r,g,b (0..%d)", codec.Max)
	case *property.Flags:
		return "flags"
	case property.Text:
		return "text"
	default:
		return "-"
	}
}

func runQuery(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("query", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	write := fs.BoolP("write", "w", false, "send as a write command")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return errUsage
	}
	op, err := parseOpcode(fs.Arg(0))
	if err != nil {
		return err
	}
	var payload []byte
	if fs.NArg() == 2 {
		if payload, err = hex.DecodeString(strings.ReplaceAll(fs.Arg(1), " ", "")); err != nil {
			return fmt.Errorf("payload: %w", err)
		}
	}
	dir := dell.Read
	if *write {
		dir = dell.Write
	}
	data, err := c.controller().Query(ctx, dir, op, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "0x%02X : % X\n", op, data)
	return nil
}

func runSearch(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("search", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fromArg := fs.String("from", "0x00", "first opcode")
	toArg := fs.String("to", "0xFF", "last opcode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	from, err := parseOpcode(*fromArg)
	if err != nil {
		return err
	}
	to, err := parseOpcode(*toArg)
	if err != nil {
		return err
	}
	results, err := c.controller().Scan(ctx, from, to, nil)
	for _, r := range results {
		fmt.Fprintln(c.stdout, r.String())
	}
	return err
}

func runPreset(ctx context.Context, c *cli, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if c.cfg.Presets.Path == "" {
		return errors.New("no presets file configured (use --presets or presets.path)")
	}
	book, err := app.LoadPresets(c.cfg.Presets.Path, property.DefaultTable(), c.log)
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		for _, name := range book.Names() {
			p, _ := book.Get(name)
			fmt.Fprintf(c.stdout, "%s\t%d steps\t%s\n", name, len(p.Steps), p.Description)
		}
		return nil
	case "show":
		if len(args) != 2 {
			return errUsage
		}
		p, err := book.Get(args[1])
		if err != nil {
			return err
		}
		for i, s := range p.Steps {
			fmt.Fprintf(c.stdout, "%d. %s = %s\n", i+1, s.Property, s.Value)
		}
		return nil
	case "apply":
		if len(args) != 2 {
			return errUsage
		}
		p, err := book.Get(args[1])
		if err != nil {
			return err
		}
		n, err := preset.Apply(ctx, c.controller(), p)
		fmt.Fprintf(c.stdout, "%s: applied %d/%d\n", p.Name, n, len(p.Steps))
		return err
	default:
		return errUsage
	}
}

func runServe(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	addr := fs.String("addr", "", "listen address (overrides http.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *addr != "" {
		c.cfg.HTTP.Addr = *addr
	}
	return bootstrap.Run(ctx, c.cfg, c.log, version)
}

func runVersion(_ context.Context, c *cli, _ []string) error {
	fmt.Fprintf(c.stdout, "monitorctl %s\n", version)
	return nil
}

func parseOpcode(s string) (byte, error) {
	n, err := property.ParseUint(s, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid opcode %q", s)
	}
	return byte(n), nil
}
