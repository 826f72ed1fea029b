package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"roleplay-coach-go/internal/coach"
	"roleplay-coach-go/internal/config"
	"roleplay-coach-go/internal/dataset"
	"roleplay-coach-go/internal/evaluation"
	"roleplay-coach-go/internal/llm"
	"roleplay-coach-go/internal/logger"
	"roleplay-coach-go/internal/storage"
	"roleplay-coach-go/internal/transcript"
	"roleplay-coach-go/internal/types"
)

// env carries what every command needs. client is nil when no backend is
// configured.
type env struct {
	cfg    config.Config
	client llm.Client
	in     io.Reader
	out    io.Writer
}

func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:  "evalctl",
		Usage: "Coach and grade role-play transcripts offline",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "mock", Usage: "Use the canned offline backend"},
		},
		Commands: []*cli.Command{
			nextStepCmd(e),
			coachCmd(e),
			gradeCmd(e),
			checklistCmd(e),
			batchCmd(e),
			exportCmd(e),
		},
	}
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Transcript file (default: stdin)"}
}

func (e *env) model(c *cli.Context) llm.Client {
	if c.Bool("mock") {
		return llm.NewMock()
	}
	return e.client
}

func nextStepCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "next-step",
		Usage: "Print the script state and the next step the agent still owes",
		Flags: []cli.Flag{fileFlag()},
		Action: func(c *cli.Context) error {
			t, err := e.readTranscript(c)
			if err != nil {
				return err
			}
			state := transcript.ScriptState(t)
			step, ok := transcript.NextMissingStepFor(state)
			return e.outputJSON(map[string]any{
				"next_step": step,
				"missing":   ok,
				"state":     state,
			})
		},
	}
}

func coachCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "coach",
		Usage: "Run one live coaching decision",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.IntFlag{Name: "silence-ms", Usage: "Milliseconds since the agent last spoke"},
			&cli.StringFlag{Name: "agent-utterance", Usage: "The agent's last utterance, if the transcript lags"},
		},
		Action: func(c *cli.Context) error {
			t, err := e.readTranscript(c)
			if err != nil {
				return err
			}
			in := coach.Input{SessionID: "evalctl", Transcript: t}
			if c.IsSet("silence-ms") || c.IsSet("agent-utterance") {
				in.Meta = &types.LiveMeta{SilenceMs: c.Int("silence-ms"), AgentLastUtterance: c.String("agent-utterance")}
			}
			gate := coach.New(e.model(c), coach.ConfigFrom(e.cfg))
			return e.outputJSON(gate.Decide(c.Context, in))
		},
	}
}

func gradeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "grade",
		Usage: "Grade a transcript as an exam attempt",
		Flags: []cli.Flag{fileFlag()},
		Action: func(c *cli.Context) error {
			t, err := e.readTranscript(c)
			if err != nil {
				return err
			}
			ev := evaluation.New(e.model(c), evaluation.ConfigFrom(e.cfg))
			return e.outputJSON(ev.Grade(c.Context, t))
		},
	}
}

func checklistCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "checklist",
		Usage: "Score a transcript against the call checklist",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.StringFlag{Name: "customer-type", Usage: "Customer persona, passed to the grader"},
			&cli.IntFlag{Name: "emotion-level", Usage: "Customer emotion level, passed to the grader"},
		},
		Action: func(c *cli.Context) error {
			t, err := e.readTranscript(c)
			if err != nil {
				return err
			}
			meta := evaluation.CallMeta{CustomerType: c.String("customer-type")}
			if c.IsSet("emotion-level") {
				n := c.Int("emotion-level")
				meta.EmotionLevel = &n
			}
			ev := evaluation.New(e.model(c), evaluation.ConfigFrom(e.cfg))
			return e.outputJSON(ev.Checklist(c.Context, t, meta))
		},
	}
}

func batchCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Grade every call in a practice workbook and write a results workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Required: true, Usage: "Practice workbook (.xlsx)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "Results workbook to write"},
			&cli.IntFlag{Name: "concurrency", Aliases: []string{"c"}, Value: 4, Usage: "Calls graded at once"},
		},
		Action: func(c *cli.Context) error {
			log := logger.Component("evalctl.batch")
			ev := evaluation.New(e.model(c), evaluation.ConfigFrom(e.cfg))
			if !ev.Configured() {
				return cli.Exit("no model backend configured; set OPENAI_API_KEY or pass --mock", 1)
			}

			calls, err := dataset.Load(c.String("in"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("load practice workbook: %v", err), 1)
			}
			log.WithField("calls", len(calls)).Info("grading practice workbook")

			results, err := gradeAll(c.Context, ev, calls, c.Int("concurrency"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			f, err := os.Create(c.String("out"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("create results: %v", err), 1)
			}
			defer f.Close()
			if err := dataset.WriteResults(f, results); err != nil {
				return cli.Exit(fmt.Sprintf("write results: %v", err), 1)
			}
			return e.outputJSON(map[string]any{"graded": len(results), "out": c.String("out")})
		},
	}
}

// gradeAll grades calls with at most limit in flight, keeping input order.
func gradeAll(ctx context.Context, ev *evaluation.Evaluator, calls []types.PracticeCall, limit int) ([]dataset.GradedCall, error) {
	if limit <= 0 {
		limit = 1
	}
	results := make([]dataset.GradedCall, len(calls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, call := range calls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			meta := evaluation.CallMeta{CustomerType: call.CustomerType, EmotionLevel: call.EmotionLevel}
			results[i] = dataset.GradedCall{
				Call:      call,
				Grade:     ev.Grade(ctx, call.Transcript),
				Checklist: ev.Checklist(ctx, call.Transcript, meta),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export stored attempts to a workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "Attempts database (default: APP_DB_PATH)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "Workbook to write"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("db")
			if path == "" {
				path = e.cfg.DBPath
			}
			store, err := storage.Open(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("open store: %v", err), 1)
			}
			defer store.Close()

			all, err := store.All(c.Context)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			f, err := os.Create(c.String("out"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("create workbook: %v", err), 1)
			}
			defer f.Close()
			if err := dataset.WriteAttempts(f, all); err != nil {
				return cli.Exit(fmt.Sprintf("write workbook: %v", err), 1)
			}
			return e.outputJSON(map[string]any{"exported": len(all), "out": c.String("out")})
		},
	}
}

// readTranscript takes --file when given, else the piped input.
func (e *env) readTranscript(c *cli.Context) (string, error) {
	var (
		data []byte
		err  error
	)
	if path := c.String("file"); path != "" {
		data, err = os.ReadFile(path)
	} else {
		if f, ok := e.in.(*os.File); ok && !isPiped(f) {
			return "", cli.Exit("transcript must be piped via stdin or given with --file", 1)
		}
		data, err = io.ReadAll(e.in)
	}
	if err != nil {
		return "", cli.Exit(fmt.Sprintf("read transcript: %v", err), 1)
	}
	return strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n")), nil
}

func isPiped(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func (e *env) outputJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
