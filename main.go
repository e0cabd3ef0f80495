package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ZacxDev/reel-composer/internal/batch"
	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/internal/ffmpeg"
	"github.com/ZacxDev/reel-composer/internal/logging"
	"github.com/ZacxDev/reel-composer/internal/metrics"
	"github.com/ZacxDev/reel-composer/internal/platform"
	"github.com/ZacxDev/reel-composer/internal/store"
	"github.com/ZacxDev/reel-composer/pkg/reelgen"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "reel-composer",
		Short: "Deterministic short-video and slideshow composer",
		Long: `reel-composer builds short vertical videos from a pool of images and clips.
Every output is a pure function of the request and its seed.

Examples:
  # Print the composition for a request without rendering
  reel-composer compose --request reel.yaml --seed 42

  # Render one video
  reel-composer render --request reel.yaml -o ./out/reel.mp4

  # Render ten seeded variations with four workers
  reel-composer batch --request reel.yaml --count 10`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			verbose, _ := cmd.Flags().GetBool("verbose")

			var err error
			cfg, err = config.Load(path)
			if err != nil {
				return err
			}
			logging.Init(cfg.LogLevel, verbose)
			return nil
		},
	}

	composeCmd = &cobra.Command{
		Use:   "compose",
		Short: "Print the composition request for a generation request",
		Long: `Run selection, timing, profile and hook layout and print the resulting
composition as JSON. Nothing is rendered.

Example:
  reel-composer compose --media a.jpg --media b.jpg --media c.mp4 --hook "wait for it" --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFromFlags(cmd)
			if err != nil {
				return err
			}
			gen, err := reelgen.New(cfg, logging.WithComponent("reelgen"))
			if err != nil {
				return err
			}
			res, err := gen.Generate(req)
			if err != nil {
				return err
			}
			return printJSON(res.Composition)
		},
	}

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Compose and render a single video",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFromFlags(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")

			gen, err := reelgen.New(cfg, logging.WithComponent("reelgen"))
			if err != nil {
				return err
			}
			res, err := gen.Generate(req)
			if err != nil {
				return err
			}

			if output == "" {
				output = filepath.Join(cfg.Batch.OutputDir, res.Composition.Output.Filename)
			}
			output = ffmpeg.EnsureExtension(output, "."+res.Composition.Output.Container)
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return errors.Wrap(err, "failed to create output directory")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			renderer := ffmpeg.NewRenderer(cfg.Render, logging.WithComponent("render"))
			if err := renderer.Render(ctx, res.Composition, output); err != nil {
				return err
			}
			fmt.Println(output)
			return nil
		},
	}

	batchCmd = &cobra.Command{
		Use:   "batch",
		Short: "Render many seeded variations of one request",
		Long: `Fan a request out over --count seeds and render each concurrently.
Seeds are derived from the start time unless --fixed-seed is set, in which
case unit i uses seed+i. Finished outputs are recorded in the result store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFromFlags(cmd)
			if err != nil {
				return err
			}
			count, _ := cmd.Flags().GetInt("count")
			fixed, _ := cmd.Flags().GetBool("fixed-seed")
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			metricsFile, _ := cmd.Flags().GetString("metrics-file")
			if concurrency > 0 {
				cfg.Batch.Concurrency = concurrency
			}
			if cmd.Flags().Changed("avoid-repeats") {
				cfg.Selection.AvoidRepeats, _ = cmd.Flags().GetBool("avoid-repeats")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(cfg.Store.Path, logging.WithComponent("store"))
			if err != nil {
				return err
			}
			defer st.Close()

			if n, err := st.PurgeExpired(ctx, time.Now()); err != nil {
				log.Warn().Err(err).Msg("failed to purge expired results")
			} else if n > 0 {
				log.Info().Int64("purged", n).Msg("purged expired results")
			}

			gen, err := reelgen.New(cfg, logging.WithComponent("reelgen"))
			if err != nil {
				return err
			}
			renderer := ffmpeg.NewRenderer(cfg.Render, logging.WithComponent("render"))
			runner := batch.NewRunner(gen, renderer, st, cfg, logging.WithComponent("batch"))

			summary, runErr := runner.Run(ctx, batch.Request{Template: req, Count: count, FixedSeed: fixed})

			if metricsFile != "" {
				if err := metrics.WriteTextfile(metricsFile); err != nil {
					log.Warn().Err(err).Str("path", metricsFile).Msg("failed to write metrics")
				}
			}
			if summary != nil {
				for _, res := range summary.Results {
					if res.Err != nil {
						fmt.Printf("FAIL %d seed=%d %s: %v\n", res.Index, res.Seed, res.Outcome, res.Err)
						continue
					}
					fmt.Printf("OK   %d seed=%d %s\n", res.Index, res.Seed, res.Output)
				}
				fmt.Printf("run %s: %d succeeded, %d failed\n", summary.RunID, summary.Succeeded, summary.Failed)
				if runErr == nil && summary.Failed > 0 {
					runErr = fmt.Errorf("%d of %d units failed", summary.Failed, count)
				}
			}
			return runErr
		},
	}

	layoutCmd = &cobra.Command{
		Use:   "layout",
		Short: "Print hook text layout for a canvas",
		Long: `Wrap and position hook text and print the line and box geometry as JSON.

Styles: 1 outlined, 2 white pill, 3 black pill, 4 plain.
Positions: top, middle, bottom.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _ := cmd.Flags().GetString("text")
			style, _ := cmd.Flags().GetInt("style")
			position, _ := cmd.Flags().GetString("position")
			offset, _ := cmd.Flags().GetFloat64("offset")
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")

			gen, err := reelgen.New(cfg, logging.WithComponent("reelgen"))
			if err != nil {
				return err
			}
			laid, err := gen.Hooks().Layout(types.HookSpec{
				Text:     text,
				Style:    types.HookStyle(style),
				Position: types.HookPosition(position),
				Offset:   offset,
			}, width, height)
			if err != nil {
				return err
			}
			return printJSON(laid)
		},
	}

	platformsCmd = &cobra.Command{
		Use:   "platforms",
		Short: "List supported target platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range platform.GetSupportedPlatforms() {
				p, err := platform.Get(name)
				if err != nil {
					return err
				}
				w, h := platform.Canvas(p)
				fmt.Printf("%-16s %dx%d  max %ds  %s/%s  %dkbps\n",
					name, w, h, p.GetMaxDuration(), p.GetVideoCodec(), p.GetAudioCodec(), p.GetMaxVideoBitrate())
			}
			return nil
		},
	}

	resultsCmd = &cobra.Command{
		Use:   "results",
		Short: "List recorded render results",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			if owner == "" {
				owner = cfg.Batch.Owner
			}

			st, err := store.Open(cfg.Store.Path, logging.WithComponent("store"))
			if err != nil {
				return err
			}
			defer st.Close()

			results, err := st.List(cmd.Context(), owner)
			if err != nil {
				return err
			}
			return printJSON(results)
		},
	}
)

// requestFromFlags loads --request (YAML or JSON) and applies flag overrides
func requestFromFlags(cmd *cobra.Command) (types.GenerationRequest, error) {
	var req types.GenerationRequest

	if path, _ := cmd.Flags().GetString("request"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, errors.Wrapf(err, "failed to read request %s", path)
		}
		if err := yaml.Unmarshal(data, &req); err != nil {
			return req, errors.Wrapf(err, "failed to parse request %s", path)
		}
	}

	flags := cmd.Flags()
	if media, _ := flags.GetStringArray("media"); len(media) > 0 {
		for _, ref := range media {
			req.MediaPool = append(req.MediaPool, types.MediaItem{Ref: ref})
		}
	}
	if flags.Changed("seed") {
		req.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("platform") {
		p, _ := flags.GetString("platform")
		req.Platform = types.ProcessingPlatform(p)
	}
	if flags.Changed("audio") {
		req.AudioRef, _ = flags.GetString("audio")
	}
	if flags.Changed("hook") {
		text, _ := flags.GetString("hook")
		if req.Hook == nil {
			req.Hook = &types.HookSpec{}
		}
		req.Hook.Text = text
	}
	if flags.Changed("hook-mode") {
		mode, _ := flags.GetString("hook-mode")
		req.HookMode = types.HookMode(mode)
	}
	if flags.Changed("timing") {
		mode, _ := flags.GetString("timing")
		req.Timing.Mode = types.TimingMode(mode)
	}
	if flags.Changed("target") {
		window, _ := flags.GetFloat64Slice("target")
		if len(window) != 2 {
			return req, fmt.Errorf("--target takes min,max seconds")
		}
		req.Timing.TargetMin, req.Timing.TargetMax = window[0], window[1]
	}
	if req.Timing.Mode == "" {
		req.Timing.Mode = types.TimingUniform
	}

	if len(req.MediaPool) == 0 {
		return req, fmt.Errorf("a media pool is required (--request or --media)")
	}
	return req, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("request", "r", "", "Generation request file (YAML or JSON)")
	cmd.Flags().StringArrayP("media", "m", nil, "Media file to add to the pool (repeatable)")
	cmd.Flags().Int64P("seed", "s", 0, "Variation seed")
	cmd.Flags().StringP("platform", "t", "",
		fmt.Sprintf("Target platform (%s)", strings.Join(platform.GetSupportedPlatforms(), ", ")))
	cmd.Flags().String("audio", "", "Audio track")
	cmd.Flags().String("hook", "", "Hook overlay text")
	cmd.Flags().String("hook-mode", "", "Hook span (first_clip or all_clips)")
	cmd.Flags().String("timing", "", "Timing mode (uniform or per_clip)")
	cmd.Flags().Float64Slice("target", nil, "Target duration window in seconds, as min,max")
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./reelgen.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	addRequestFlags(composeCmd)

	addRequestFlags(renderCmd)
	renderCmd.Flags().StringP("output", "o", "", "Output video path (default <output_dir>/<generated name>)")

	addRequestFlags(batchCmd)
	batchCmd.Flags().IntP("count", "n", 1, "Number of variations")
	batchCmd.Flags().Bool("fixed-seed", false, "Use seed+i instead of time-derived seeds")
	batchCmd.Flags().Int("concurrency", 0, "Concurrent renders (default from config)")
	batchCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file when done")
	batchCmd.Flags().Bool("avoid-repeats", false, "Skip clip orders already produced in this run (default from config)")

	layoutCmd.Flags().String("text", "", "Hook text")
	layoutCmd.Flags().Int("style", int(types.HookStyleOutlined), "Hook style (1-4)")
	layoutCmd.Flags().String("position", string(types.HookTop), "Hook position")
	layoutCmd.Flags().Float64("offset", 0, "Vertical offset in percent of canvas height")
	layoutCmd.Flags().Int("width", 1080, "Canvas width")
	layoutCmd.Flags().Int("height", 1920, "Canvas height")
	layoutCmd.MarkFlagRequired("text")

	resultsCmd.Flags().String("owner", "", "Result owner (default from config)")

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(platformsCmd)
	rootCmd.AddCommand(resultsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
