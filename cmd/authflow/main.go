// Command authflow drives the trading platform's authentication screens
// from a terminal: log in, register, confirm emailed links, reset a
// password and peek at the landing page data.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/MrEthical07/authflow"
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "authflow",
		Short:         "Trading platform authentication from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(func(name string) bool {
				f := cmd.Flags().Lookup(name)
				return f != nil && f.Changed
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.configPath, "config", "", "YAML config file")
	pf.StringVar(&a.opts.envFile, "env-file", ".env", "dotenv file loaded before reading AUTHFLOW_* variables")
	pf.StringVar(&a.opts.baseURL, "base-url", "", "API base URL (env AUTHFLOW_BASE_URL)")
	pf.DurationVar(&a.opts.timeout, "timeout", 15*time.Second, "HTTP timeout per request")
	pf.StringVar(&a.opts.redisAddr, "redis-addr", "", "Redis address for shared session cookies and preferences")
	pf.BoolVar(&a.opts.persistSession, "persist-session", false, "keep session cookies in Redis between runs")
	pf.StringVar(&a.opts.prefsFile, "prefs-file", "", "theme preference file when Redis is not used")
	pf.StringVar(&a.opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	pf.BoolVar(&a.opts.audit, "audit", false, "log flow audit events")
	pf.StringVar(&a.opts.metricsOut, "metrics-out", "", `write Prometheus metrics on exit ("-" for stderr)`)

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newForgotPasswordCmd(a),
		newResetPasswordCmd(a),
		newVerifyRegistrationCmd(a),
		newVerifyEmailChangeCmd(a),
		newMarketCmd(a),
		newThemeCmd(a),
		newSessionCmd(a),
	)
	return root
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	a := newApp(out, errOut)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		return 0
	}
	// Failed submissions were already rendered.
	if !errors.Is(err, errReported) {
		fmt.Fprintln(errOut, "Error:", err)
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// errReported marks a failure whose feedback is already on screen.
var errReported = errors.New("reported")

// finish renders s and turns a Failed state into errReported so the exit
// code reflects it.
func finish(r *renderer, s authflow.State, err error) error {
	r.State(s)
	if _, failed := s.(authflow.Failed); failed {
		return errReported
	}
	return err
}
