//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/markkurossi/smpc"
	"github.com/markkurossi/smpc/env"
	"github.com/markkurossi/smpc/p2p"
	"github.com/markkurossi/smpc/party"
	"github.com/markkurossi/smpc/session"
	"github.com/markkurossi/smpc/tensor"
	"github.com/markkurossi/smpc/timing"
)

var logLevel string

func main() {
	command := &cobra.Command{
		Use:   "smpc",
		Short: "Secure multi-party computation on secret-shared tensors",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(logLevel)
		},
	}
	command.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level (debug, info, warn, error)")

	addPartyCmd(command)
	addRunCmd(command)
	addDemoCmd(command)

	err := command.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	return nil
}

// addPartyCmd starts a computing party server.
func addPartyCmd(command *cobra.Command) {
	var name, listen, metrics string

	partyCmd := &cobra.Command{
		Use:   "party",
		Short: "Start a computing party",
		Long:  "Start a computing party that stores shares and executes share operations for sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.With().Str("party", name).Logger()

			if len(metrics) > 0 {
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					err := http.ListenAndServe(metrics, mux)
					logger.Error().Err(err).Msg("metrics server stopped")
				}()
			}

			server := party.NewServer(name, party.NewStore(logger), logger)
			listener, err := p2p.Listen(listen, server.Serve, logger)
			if err != nil {
				return err
			}
			logger.Info().Str("addr", listener.Addr().String()).
				Msg("listening")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt)
			go func() {
				<-sig
				listener.Close()
			}()

			err = listener.Serve()
			stats := listener.Stats()
			logger.Info().Uint64("sent", stats.Sent.Load()).
				Uint64("recvd", stats.Recvd.Load()).Msg("stopped")
			return err
		},
	}
	partyCmd.Flags().StringVarP(&name, "name", "n", "", "Party name")
	partyCmd.Flags().StringVarP(&listen, "listen", "l", ":8080",
		"Listen address")
	partyCmd.Flags().StringVar(&metrics, "metrics", "",
		"Prometheus metrics listen address")
	partyCmd.MarkFlagRequired("name")

	command.AddCommand(partyCmd)
}

// addRunCmd runs one operation against the parties of a session
// configuration.
func addRunCmd(command *cobra.Command) {
	var configFile, secret, shape, op, public, other string
	var verbose bool

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run an operation with remote parties",
		Long:  "Share a secret among the parties of a session configuration, apply an operation, and reveal the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := session.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if len(config.Log) > 0 && !cmd.Flags().Changed("log") {
				if err := setupLogger(config.Log); err != nil {
					return err
				}
			}
			a, err := parseTensor(secret, shape)
			if err != nil {
				return err
			}
			if len(public) > 0 && len(other) > 0 {
				return fmt.Errorf("both --public and --other specified")
			}

			ctx := context.Background()
			if config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, config.Timeout)
				defer cancel()
			}
			var sess *session.Session
			var parties []party.Party
			var remotes []*party.Remote

			report := timing.New(func() timing.Counters {
				var c timing.Counters
				if sess != nil {
					c.Rounds = sess.Rounds()
				}
				for _, r := range remotes {
					stats := r.Stats()
					c.Sent += stats.Sent.Load()
					c.Recvd += stats.Recvd.Load()
				}
				return c
			})
			defer func() {
				for _, r := range remotes {
					r.Close()
				}
			}()
			for _, pc := range config.Parties {
				r, err := party.Dial(ctx, pc.Name, pc.Addr)
				if err != nil {
					return err
				}
				remotes = append(remotes, r)
				parties = append(parties, r)
			}
			sess, err = session.New(parties, config.Params(),
				&env.Config{Logger: &log.Logger})
			if err != nil {
				return err
			}
			report.Record("Connect")

			x, err := smpc.Share(ctx, sess, a, nil)
			if err != nil {
				return err
			}
			var operand smpc.Operand
			switch {
			case len(public) > 0:
				b, err := parseTensor(public, "")
				if err != nil {
					return err
				}
				operand = smpc.Public(b)
			case len(other) > 0:
				b, err := parseTensor(other, "")
				if err != nil {
					return err
				}
				y, err := smpc.Share(ctx, sess, b, nil)
				if err != nil {
					return err
				}
				operand = y
			default:
				operand = x
			}
			report.Record("Share")

			var result *smpc.Tensor
			switch strings.ToLower(op) {
			case "add":
				result, err = x.Add(ctx, operand)
			case "sub":
				result, err = x.Sub(ctx, operand)
			case "mul":
				result, err = x.Mul(ctx, operand)
			default:
				return fmt.Errorf("unknown operation '%s'", op)
			}
			if err != nil {
				return err
			}
			report.Record(strings.ToUpper(op[:1]) + strings.ToLower(op[1:]))

			plain, err := result.Reveal(ctx)
			if err != nil {
				return err
			}
			report.Record("Reveal")

			smpc.PrintResults(os.Stdout, []*tensor.Float{plain}, -1)

			if verbose {
				report.Print(os.Stdout)
			}
			return nil
		},
	}
	runCmd.Flags().StringVarP(&configFile, "config", "c", "session.yaml",
		"Session configuration file")
	runCmd.Flags().StringVarP(&secret, "secret", "s", "",
		"Secret values, comma-separated")
	runCmd.Flags().StringVar(&shape, "shape", "",
		"Secret shape, comma-separated dimensions")
	runCmd.Flags().StringVar(&op, "op", "add", "Operation (add, sub, mul)")
	runCmd.Flags().StringVar(&public, "public", "",
		"Public operand values, comma-separated")
	runCmd.Flags().StringVar(&other, "other", "",
		"Secret operand values, comma-separated")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Print timing and I/O statistics")
	runCmd.MarkFlagRequired("secret")

	command.AddCommand(runCmd)
}

// addDemoCmd runs example computations with in-process parties.
func addDemoCmd(command *cobra.Command) {
	var n int

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Run example computations with in-process parties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return demo(n)
		},
	}
	demoCmd.Flags().IntVarP(&n, "parties", "n", 4, "Number of parties")

	command.AddCommand(demoCmd)
}

func demo(n int) error {
	if n <= 0 {
		return fmt.Errorf("invalid number of parties: %d", n)
	}
	config := &env.Config{Logger: &log.Logger}

	var parties []party.Party
	for i := 0; i < n; i++ {
		parties = append(parties, party.NewLocal(fmt.Sprintf("party%d", i),
			config))
	}
	sess, err := session.New(parties, session.NewParams(), config)
	if err != nil {
		return err
	}
	fmt.Println(sess)

	ctx := context.Background()
	report := timing.New(func() timing.Counters {
		return timing.Counters{
			Rounds: sess.Rounds(),
		}
	})

	a := tensor.Vector(1, 2, 3, 4, -5)
	x, err := smpc.Share(ctx, sess, a, nil)
	if err != nil {
		return err
	}
	sum, err := x.Add(ctx, smpc.Scalar(10))
	if err != nil {
		return err
	}
	diff, err := x.Sub(ctx, x)
	if err != nil {
		return err
	}
	report.Record("Add")

	b := tensor.Vector(42, -32, 12)
	y, err := smpc.Share(ctx, sess, b, nil)
	if err != nil {
		return err
	}
	z, err := smpc.Share(ctx, sess, tensor.Scalar(20), nil)
	if err != nil {
		return err
	}
	product, err := y.Mul(ctx, z)
	if err != nil {
		return err
	}
	report.Record("Mul")

	var results []*tensor.Float
	for _, t := range []*smpc.Tensor{sum, diff, product} {
		plain, err := t.Reveal(ctx)
		if err != nil {
			return err
		}
		results = append(results, plain)
	}
	report.Record("Reveal")

	smpc.PrintResults(os.Stdout, results, -1)

	want := tensor.Vector(840, -640, 240)
	stats, err := smpc.Errors(results[2], want)
	if err != nil {
		return err
	}
	fmt.Printf("Mul error: %v\n", stats)

	issued, consumed, pairs := sess.Dealer().Stats()
	fmt.Printf("Triples: issued=%d, consumed=%d, truncation pairs=%d\n",
		issued, consumed, pairs)

	report.Print(os.Stdout)
	return nil
}

func parseTensor(values, shape string) (*tensor.Float, error) {
	f, err := tensor.ParseFloat(values)
	if err != nil {
		return nil, err
	}
	if len(shape) == 0 {
		return f, nil
	}
	s, err := tensor.ParseShape(shape)
	if err != nil {
		return nil, err
	}
	return f.Reshape(s)
}
