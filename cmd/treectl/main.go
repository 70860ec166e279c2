package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"example.com/behavior-sim/internal/behavior"
	"example.com/behavior-sim/internal/behavior/actions"
	"example.com/behavior-sim/internal/db"
	"example.com/behavior-sim/internal/library"
	"example.com/behavior-sim/internal/remote"
)

const usage = `usage: treectl <command> [flags] [args]

commands:
  validate [-dir trees] file...    compile tree descriptions
  fmt [-dir trees] [-w] file       print the canonical JSON form
  run [-dir trees] [-steps n] [-delta s] file
                                   tick a tree and print each decision
  import [-db path] dir            store every tree in dir in the database
  fetch -addr host:22 -user u [-key file] [-password p] -remote dir -out dir
  push  -addr host:22 -user u [-key file] [-password p] -remote dir dir
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmds := map[string]func([]string, io.Writer) error{
		"validate": cmdValidate,
		"fmt":      cmdFmt,
		"run":      cmdRun,
		"import":   cmdImport,
		"fetch":    cmdFetch,
		"push":     cmdPush,
	}
	fn, ok := cmds[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}
	if err := fn(args[1:], stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "treectl %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

// newLibrary loads dir (if any) so that lookups in the files under test
// resolve.
func newLibrary(dir string, out io.Writer) (*library.Library, error) {
	reg := behavior.NewRegistry()
	actions.Register(reg)
	lib := library.New(reg, out)
	if dir != "" {
		if _, err := lib.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func cmdValidate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	dir := fs.String("dir", "", "directory of trees referenced by lookup")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no files given")
	}
	lib, err := newLibrary(*dir, io.Discard)
	if err != nil {
		return err
	}
	var failed int
	for _, file := range fs.Args() {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		root, err := lib.Compile(data)
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "FAIL %s: %v\n", file, err)
			continue
		}
		fmt.Fprintf(stdout, "ok   %s (%d actions)\n", file, len(behavior.Actions(root)))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, fs.NArg())
	}
	return nil
}

func cmdFmt(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	dir := fs.String("dir", "", "directory of trees referenced by lookup")
	write := fs.Bool("w", false, "write the result to <file>.json instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one file required")
	}
	file := fs.Arg(0)
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	lib, err := newLibrary(*dir, io.Discard)
	if err != nil {
		return err
	}
	root, err := lib.Compile(data)
	if err != nil {
		return err
	}
	out, err := lib.Builder().SerializeIndent(root)
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if !*write {
		_, err = stdout.Write(out)
		return err
	}
	dst := strings.TrimSuffix(file, filepath.Ext(file)) + ".json"
	return os.WriteFile(dst, out, 0o644)
}

func cmdRun(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	dir := fs.String("dir", "", "directory of trees referenced by lookup")
	steps := fs.Int("steps", 10, "number of ticks")
	delta := fs.Float64("delta", 0.1, "seconds per tick")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one file required")
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	lib, err := newLibrary(*dir, stdout)
	if err != nil {
		return err
	}
	root, err := lib.Compile(data)
	if err != nil {
		return err
	}
	actor := behavior.NewActor(nil)
	r := behavior.NewRunner(root, actor)
	for i := 1; i <= *steps; i++ {
		actor.SetDelta(*delta)
		st, err := r.Step()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		fmt.Fprintf(stdout, "\nstep %d: %s\n", i, st)
	}
	return r.Abort()
}

func cmdImport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	dbPath := fs.String("db", envOr("DB_PATH", "sim.db"), "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one directory required")
	}
	lib, err := newLibrary(fs.Arg(0), io.Discard)
	if err != nil {
		return err
	}
	if err := lib.Check(); err != nil {
		return err
	}
	store, err := db.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()
	for _, name := range lib.Names() {
		raw, _ := lib.Source(name)
		if _, err := store.UpsertTree(ctx, name, string(raw)); err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
		fmt.Fprintf(stdout, "imported %s\n", name)
	}
	return nil
}

type remoteFlags struct {
	addr, user, key, password, dir string
}

func (r *remoteFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.addr, "addr", "", "remote host:port")
	fs.StringVar(&r.user, "user", "", "remote user")
	fs.StringVar(&r.key, "key", "", "private key file")
	fs.StringVar(&r.password, "password", os.Getenv("REMOTE_PASSWORD"), "remote password")
	fs.StringVar(&r.dir, "remote", "", "remote tree directory")
}

func (r *remoteFlags) host() (remote.HostSpec, error) {
	if r.dir == "" {
		return remote.HostSpec{}, errors.New("-remote is required")
	}
	h := remote.HostSpec{Addr: r.addr, User: r.user, Password: r.password}
	if r.key != "" {
		key, err := os.ReadFile(r.key)
		if err != nil {
			return h, fmt.Errorf("read private key: %w", err)
		}
		h.PrivateKey = key
	}
	return h, nil
}

func cmdFetch(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	var rf remoteFlags
	rf.register(fs)
	out := fs.String("out", ".", "local directory to write trees to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	h, err := rf.host()
	if err != nil {
		return err
	}
	trees, err := remote.Fetch(h, rf.dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	for name, data := range trees {
		if err := os.WriteFile(filepath.Join(*out, name+".json"), data, 0o644); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "fetched %d trees into %s\n", len(trees), *out)
	return nil
}

func cmdPush(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	var rf remoteFlags
	rf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one directory required")
	}
	h, err := rf.host()
	if err != nil {
		return err
	}
	lib, err := newLibrary(fs.Arg(0), io.Discard)
	if err != nil {
		return err
	}
	if err := lib.Check(); err != nil {
		return err
	}
	trees := make(map[string][]byte)
	for _, name := range lib.Names() {
		root, err := lib.Tree(name)
		if err != nil {
			return err
		}
		out, err := lib.Builder().SerializeIndent(root)
		if err != nil {
			return err
		}
		trees[name] = out
	}
	if err := remote.Push(h, rf.dir, trees); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "pushed %d trees\n", len(trees))
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
