// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command logvigil is a log-driven intrusion-response daemon: it
// tails HTTP access logs, evaluates each record against a declarative
// ruleset, and dispatches named actions and their paired expiries.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"grimm.is/logvigil/internal/daemon"
	"grimm.is/logvigil/internal/engine"
	"grimm.is/logvigil/internal/logging"
	"grimm.is/logvigil/internal/metrics"
	"grimm.is/logvigil/internal/ruleconfig"
)

const defaultConfigFile = "/etc/logvigil/logvigil.conf"

const reexecEnvVar = "LOGVIGIL_DETACHED"

type cliOptions struct {
	configFiles []string
	defines     map[string]string
	dryRun      bool
	checkConfig bool
	syslog      bool
	syslogSet   bool
	verbose     bool
	verboseSet  bool
	debug       bool
	interval    int
	window      int
	threshold   int
	noFlush     bool
	daemonize   bool
	logFiles    []string
	metricsAddr string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logvigil:", err)
		return 1
	}

	if len(opts.configFiles) == 0 {
		opts.configFiles = []string{defaultConfigFile}
	}

	logOpts := logging.Options{Verbose: opts.verbose || opts.checkConfig, Debug: opts.debug}
	logging.SetDefault(logging.New(logOpts))
	log := logging.Default()

	if opts.checkConfig {
		if _, err := ruleconfig.Load(opts.configFiles, opts.defines); err != nil {
			fmt.Fprintln(os.Stderr, "logvigil: config error:", err)
			return 2
		}
		for _, f := range opts.configFiles {
			fmt.Printf("%s: OK\n", f)
		}
		return 0
	}

	if opts.daemonize && os.Getenv(reexecEnvVar) == "" {
		if err := detach(args); err != nil {
			fmt.Fprintln(os.Stderr, "logvigil: daemonize failed:", err)
			return 2
		}
		return 0
	}

	metricsReg := metrics.New()
	metricsReg.MustRegister(prometheusDefaultRegisterer())

	// d.RequestShutdown only exists once the Daemon is constructed,
	// but the engine's "exit" action needs a shutdown callback at
	// construction time - so the engine calls through this indirection
	// until the Daemon is wired up just below.
	var shutdown func(status int, msg string)
	shutdownThunk := func(status int, msg string) { shutdown(status, msg) }

	eng, err := engine.New(engine.Options{
		ConfigPaths: opts.configFiles,
		Defines:     opts.defines,
		DryRun:      opts.dryRun,
		Debug:       opts.debug,
		Verbose:     opts.verbose,
		Metrics:     metricsReg,
	}, shutdownThunk)
	if err != nil {
		log.Error("cannot load config", "error", err)
		return 2
	}

	if syslogCfg := eng.SyslogConfig(); applySyslogOverride(syslogCfg.Enabled, opts) {
		w, err := logging.NewSyslogWriter(syslogCfg)
		if err != nil {
			log.Error("syslog unavailable, continuing without it", "error", err)
		} else {
			logOpts.Syslog = w
			logging.SetDefault(logging.New(logOpts))
			log = logging.Default()
		}
	}

	d := daemon.New(daemon.Options{
		LogFiles:    resolveLogFiles(opts),
		TailCommand: tailCommandFor(opts),
		Flush:       !opts.noFlush,
		MetricsAddr: opts.metricsAddr,
		Metrics:     metricsReg,
	}, eng)
	shutdown = d.RequestShutdown

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.WatchSignals(ctx)

	go func() {
		if err := d.ServeMetrics(ctx, prometheusDefaultGatherer()); err != nil {
			log.Error("metrics listener failed", "error", err)
		}
	}()

	return d.Run(ctx)
}

// applySyslogOverride resolves whether the syslog sink should be
// attached: the command line's -s/-S wins when given, otherwise the
// config file's own "syslog" setting applies.
func applySyslogOverride(configEnabled bool, opts cliOptions) bool {
	if opts.syslogSet {
		return opts.syslog
	}
	return configEnabled
}

func resolveLogFiles(opts cliOptions) []string {
	return opts.logFiles
}

func tailCommandFor(opts cliOptions) string {
	if len(opts.logFiles) == 0 {
		return ""
	}
	return "tail"
}

func parseArgs(args []string) (cliOptions, error) {
	opts := cliOptions{defines: make(map[string]string)}

	for i := 0; i < len(args); i++ {
		a := args[i]

		switch {
		case a == "-c" || a == "--config-file":
			v, err := nextValue(args, &i, a)
			if err != nil {
				return opts, err
			}
			opts.configFiles = append(opts.configFiles, v)
		case strings.HasPrefix(a, "--config-file="):
			opts.configFiles = append(opts.configFiles, strings.TrimPrefix(a, "--config-file="))
		case a == "-D" || a == "--define":
			v, err := nextValue(args, &i, a)
			if err != nil {
				return opts, err
			}
			k, val, _ := strings.Cut(v, "=")
			opts.defines[k] = val
		case strings.HasPrefix(a, "--define="):
			k, val, _ := strings.Cut(strings.TrimPrefix(a, "--define="), "=")
			opts.defines[k] = val
		case a == "-n" || a == "--dry-run":
			opts.dryRun = true
		case a == "-t" || a == "--check-config":
			opts.checkConfig = true
			opts.verbose = true
		case a == "-s" || a == "--syslog":
			opts.syslog, opts.syslogSet = true, true
		case a == "-S" || a == "--nosyslog":
			opts.syslog, opts.syslogSet = false, true
		case a == "-v" || a == "--verbose":
			opts.verbose, opts.verboseSet = true, true
		case a == "-V" || a == "--noverbose":
			opts.verbose, opts.verboseSet = false, true
		case a == "-d" || a == "--debug":
			opts.debug = true
			opts.verbose = true
		case a == "-i" || a == "--interval":
			v, err := nextValue(args, &i, a)
			if err != nil {
				return opts, err
			}
			opts.interval = atoiOrZero(v)
		case a == "-k" || a == "--window":
			v, err := nextValue(args, &i, a)
			if err != nil {
				return opts, err
			}
			opts.window = atoiOrZero(v)
		case a == "-l" || a == "--threshold":
			v, err := nextValue(args, &i, a)
			if err != nil {
				return opts, err
			}
			opts.threshold = atoiOrZero(v)
		case a == "-F" || a == "--no-flush":
			opts.noFlush = true
		case a == "-b" || a == "--daemon":
			opts.daemonize = true
		case a == "--metrics-addr":
			v, err := nextValue(args, &i, a)
			if err != nil {
				return opts, err
			}
			opts.metricsAddr = v
		case strings.HasPrefix(a, "-"):
			return opts, fmt.Errorf("unknown option %q", a)
		default:
			opts.logFiles = append(opts.logFiles, a)
		}
	}

	if opts.interval != 0 {
		opts.defines["interval"] = itoa(opts.interval)
	}
	if opts.window != 0 {
		opts.defines["window"] = itoa(opts.window)
	}
	if opts.threshold != 0 {
		opts.defines["threshold"] = itoa(opts.threshold)
	}

	return opts, nil
}

func nextValue(args []string, i *int, flag string) (string, error) {
	if *i+1 >= len(args) {
		return "", fmt.Errorf("option %q requires a value", flag)
	}
	*i++
	return args[*i], nil
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
