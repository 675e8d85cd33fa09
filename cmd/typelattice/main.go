package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/typelattice/internal/casefile"
	"github.com/funvibe/typelattice/internal/config"
	"github.com/funvibe/typelattice/internal/evaluator"
	"github.com/funvibe/typelattice/internal/journal"
	"github.com/funvibe/typelattice/internal/pipeline"
	"github.com/funvibe/typelattice/internal/repl"
	"github.com/funvibe/typelattice/internal/service"
	"github.com/funvibe/typelattice/internal/symbols"
	"github.com/funvibe/typelattice/internal/typespec"
)

const usage = `Usage: %[1]s <command> [arguments]

Commands:
  eval [-journal db] [-decl file]... <file.yaml|dir>...
        evaluate case files
  serve [-config latticed.yaml] [-listen addr]
        run the gRPC lattice service
  query [-addr host:port] [-vars yaml] [-bind yaml] <op> <type> [<type>]
        send one query to a running service
  classes [-decl file]... [name]
        list classes, or print the MRO of one
  history [-journal db] [-n N] [-time-format pattern]
        show recorded queries
  repl [-decl file]...
        evaluate queries interactively
  help
        show this message

Operations: %[2]s
Types are YAML: a bare name (int, typing.Iterable) or a mapping such as
'{name: dict, args: [str, int]}' or '{kind: callable, args: [int], return: str}'.
`

// stringList collects a repeated flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func command(name string) bool {
	return len(os.Args) >= 2 && os.Args[1] == name
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(os.Args[0]+" "+name, flag.ExitOnError)
}

// isCaseFile checks if a file has a recognized case file extension
func isCaseFile(path string) bool {
	for _, ext := range config.CaseFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// collectCaseFiles expands directories into the case files they contain.
func collectCaseFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && isCaseFile(entry.Name()) {
				files = append(files, filepath.Join(arg, entry.Name()))
			}
		}
	}
	return files, nil
}

func handleHelp() bool {
	if len(os.Args) >= 2 && os.Args[1] != "help" && os.Args[1] != "-help" && os.Args[1] != "--help" {
		return false
	}
	ops := make([]string, len(casefile.Ops))
	for i, op := range casefile.Ops {
		ops[i] = string(op)
	}
	fmt.Printf(usage, os.Args[0], strings.Join(ops, ", "))

	if methods, err := service.Methods(); err == nil {
		fmt.Printf("\nService %s:\n", config.DefaultServiceName)
		for _, m := range methods {
			fmt.Printf("  %-16s %s -> %s\n", m.GetName(),
				strings.TrimPrefix(m.GetInputType(), ".typelattice.v1."),
				strings.TrimPrefix(m.GetOutputType(), ".typelattice.v1."))
		}
	}
	return true
}

func handleEval() bool {
	if !command("eval") {
		return false
	}
	fs := newFlagSet("eval")
	journalPath := fs.String("journal", "", "record results in this SQLite journal")
	var decls stringList
	fs.Var(&decls, "decl", "class declaration file (repeatable)")
	fs.Parse(os.Args[2:])

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s eval [-journal db] [-decl file]... <file.yaml|dir>...\n", os.Args[0])
		os.Exit(1)
	}
	files, err := collectCaseFiles(fs.Args())
	if err != nil {
		fatalf("%s", err)
	}
	if len(files) == 0 {
		fmt.Println("No case files found")
		return true
	}

	processors := evaluator.Processors(decls...)
	if *journalPath != "" {
		j, err := journal.Open(*journalPath)
		if err != nil {
			fatalf("%s", err)
		}
		defer j.Close()
		processors = append(processors, &journal.RecordProcessor{Journal: j})
	}
	p := pipeline.New(processors...)

	failed := 0
	total := 0
	for _, path := range files {
		source, err := os.ReadFile(path)
		if err != nil {
			fatalf("reading file: %s", err)
		}
		ctx := pipeline.NewPipelineContext(string(source))
		ctx.FilePath = path
		ctx = p.Run(ctx)

		fmt.Printf("=== %s ===\n", path)
		for _, r := range ctx.Results {
			total++
			if r.Passed {
				fmt.Printf("%s %s = %s\n", pass("PASS"), r.Label, r.Got)
				continue
			}
			failed++
			fmt.Printf("%s %s = %s %s\n", fail("FAIL"), r.Label, r.Got, dim("(want "+r.Want+")"))
		}
		for _, e := range ctx.Errors {
			fmt.Fprintf(os.Stderr, "- %s\n", e.Error())
		}
		if len(ctx.Errors) > 0 && len(ctx.Results) == 0 {
			failed++
		}
	}

	fmt.Printf("\n%d cases, %d failed\n", total, failed)
	if failed > 0 {
		os.Exit(1)
	}
	return true
}

func loadServiceConfig(path string) (*config.ServiceConfig, error) {
	if path == "" {
		found, err := config.FindServiceConfig(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return config.DefaultServiceConfig(), nil
		}
		path = found
	}
	return config.LoadServiceConfig(path)
}

func handleServe() bool {
	if !command("serve") {
		return false
	}
	fs := newFlagSet("serve")
	configPath := fs.String("config", "", "service configuration (default: latticed.yaml found upwards)")
	listen := fs.String("listen", "", "override the listen address")
	fs.Parse(os.Args[2:])

	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	cfg, err := loadServiceConfig(*configPath)
	if err != nil {
		fatalf("%s", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	table, err := symbols.NewTable(cfg.Declarations...)
	if err != nil {
		fatalf("%s", err)
	}
	opts := []service.Option{service.WithLogger(log.Default())}
	if cfg.Record {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			fatalf("%s", err)
		}
		defer j.Close()
		opts = append(opts, service.WithJournal(j))
	}
	srv, err := service.NewServer(table, opts...)
	if err != nil {
		fatalf("%s", err)
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		fatalf("%s", err)
	}
	var serverOpts []grpc.ServerOption
	if cfg.MaxMessageBytes > 0 {
		serverOpts = append(serverOpts, grpc.MaxRecvMsgSize(cfg.MaxMessageBytes))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Serve(ctx, lis, serverOpts...); err != nil {
		fatalf("%s", err)
	}
	return true
}

func parseSpec(text string) typespec.Spec {
	spec, err := typespec.Parse(text)
	if err != nil {
		fatalf("%s", err)
	}
	return spec
}

func handleQuery() bool {
	if !command("query") {
		return false
	}
	fs := newFlagSet("query")
	addr := fs.String("addr", config.DefaultListenAddr, "service address")
	vars := fs.String("vars", "", "free type variables, e.g. '[T, {name: S, values: [int, str]}]'")
	bind := fs.String("bind", "", "bindings for expand, e.g. '{T: int}'")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	fs.Parse(os.Args[2:])

	args := fs.Args()
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s query [-addr host:port] <op> <type> [<type>]\n", os.Args[0])
		os.Exit(1)
	}
	op := casefile.Op(args[0])
	if !op.Valid() {
		fatalf("unknown operation %q", args[0])
	}
	want := 2
	if op.Binary() {
		want = 3
	}
	if len(args) != want {
		fatalf("%s takes %d type argument(s)", op, want-1)
	}

	req := service.Request{Op: op, Left: parseSpec(args[1])}
	if op.Binary() {
		right := parseSpec(args[2])
		req.Right = &right
	}
	if *vars != "" {
		if err := yaml.Unmarshal([]byte(*vars), &req.Vars); err != nil {
			fatalf("invalid -vars: %s", err)
		}
	}
	if *bind != "" {
		if err := yaml.Unmarshal([]byte(*bind), &req.Bindings); err != nil {
			fatalf("invalid -bind: %s", err)
		}
	}

	client, err := service.Dial(*addr)
	if err != nil {
		fatalf("%s", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	reply, err := client.Do(ctx, req)
	if err != nil {
		fatalf("%s", err)
	}
	fmt.Println(reply.String())
	if !config.IsTestMode {
		fmt.Fprintln(os.Stderr, dim("request "+reply.RequestID))
	}
	return true
}

func handleClasses() bool {
	if !command("classes") {
		return false
	}
	fs := newFlagSet("classes")
	var decls stringList
	fs.Var(&decls, "decl", "class declaration file (repeatable)")
	fs.Parse(os.Args[2:])

	table, err := symbols.NewTable(decls...)
	if err != nil {
		fatalf("%s", err)
	}

	if fs.NArg() > 0 {
		c, err := table.Class(fs.Arg(0))
		if err != nil {
			fatalf("%s", err)
		}
		names := make([]string, len(c.MRO))
		for i, m := range c.MRO {
			names[i] = m.Name
		}
		fmt.Println(strings.Join(names, " -> "))
		return true
	}

	for _, c := range table.Classes() {
		name := c.Self().String()
		var bases []string
		for _, b := range c.Bases {
			bases = append(bases, b.String())
		}
		line := name
		if len(bases) > 0 {
			line += "(" + strings.Join(bases, ", ") + ")"
		}
		if c.IsAbstract {
			line += dim(" abstract")
		}
		fmt.Println(line)
	}
	return true
}

func handleHistory() bool {
	if !command("history") {
		return false
	}
	fs := newFlagSet("history")
	journalPath := fs.String("journal", config.DefaultJournalPath, "SQLite journal")
	n := fs.Int("n", 20, "number of entries")
	timeFormat := fs.String("time-format", journal.DefaultTimeFormat, "strftime pattern for timestamps")
	fs.Parse(os.Args[2:])

	if _, err := os.Stat(*journalPath); errors.Is(err, os.ErrNotExist) {
		fatalf("journal %s does not exist", *journalPath)
	}
	formatter, err := journal.NewFormatter(*timeFormat, nil)
	if err != nil {
		fatalf("%s", err)
	}
	j, err := journal.Open(*journalPath)
	if err != nil {
		fatalf("%s", err)
	}
	defer j.Close()

	entries, err := j.Recent(context.Background(), *n)
	if err != nil {
		fatalf("%s", err)
	}
	for _, e := range entries {
		line := formatter.Format(e)
		switch {
		case strings.HasSuffix(line, " PASS"):
			line = strings.TrimSuffix(line, "PASS") + pass("PASS")
		case strings.HasSuffix(line, " FAIL"):
			line = strings.TrimSuffix(line, "FAIL") + fail("FAIL")
		}
		fmt.Printf("%s %s\n", line, dim(e.ID))
	}
	return true
}

func handleRepl() bool {
	if !command("repl") {
		return false
	}
	fs := newFlagSet("repl")
	var decls stringList
	fs.Var(&decls, "decl", "class declaration file (repeatable)")
	fs.Parse(os.Args[2:])

	table, err := symbols.NewTable(decls...)
	if err != nil {
		fatalf("%s", err)
	}
	session, err := repl.NewSession(table)
	if err != nil {
		fatalf("%s", err)
	}
	fmt.Println("typelattice repl; :help for commands, ctrl-d to quit")
	if err := session.Run(os.Stdout, os.Stderr); err != nil {
		fatalf("%s", err)
	}
	return true
}

func main() {
	if os.Getenv("TYPELATTICE_TEST_MODE") == "1" {
		config.IsTestMode = true
	}

	if handleHelp() {
		return
	}
	if handleEval() {
		return
	}
	if handleServe() {
		return
	}
	if handleQuery() {
		return
	}
	if handleClasses() {
		return
	}
	if handleHistory() {
		return
	}
	if handleRepl() {
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
	fmt.Fprintf(os.Stderr, "Run '%s help' for usage.\n", os.Args[0])
	os.Exit(1)
}
