// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"voxcut/internal/config"
	applog "voxcut/internal/log"
	"voxcut/pkg/build"

	"github.com/spf13/cobra"
)

// Command names.
const (
	CommandHost       = "host"
	CommandPanel      = "panel"
	CommandSet        = "set"
	CommandPreset     = "preset"
	CommandSavePreset = "save-preset"
	CommandReinit     = "reinit"
	CommandStatus     = "status"
	CommandList       = "list"
)

// Invocation is a parsed command line: the effective configuration plus the
// selected command and its arguments.
type Invocation struct {
	Config  *config.Config
	Command string
	Args    []string

	// Host options.
	Audio     []string
	Video     []string
	Loop      bool
	Suspended bool
}

// hostFlags are bound to cobra and folded into the config when changed.
type hostFlags struct {
	device          int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	output          string
	seconds         float64
	rebuildOnEQ     bool
}

// ParseArgs parses args (without the program name).
func ParseArgs(args []string) (*Invocation, error) {
	buildInfo := build.GetBuildFlags()
	inv := &Invocation{}

	var (
		configPath string
		logLevel   string
		verbose    bool
		address    string
		storePath  string
		hf         hostFlags
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("verbose") {
				cfg.Debug = verbose
			}
			if flags.Changed("address") {
				cfg.Transport.ListenAddress = address
			}
			if flags.Changed("store") {
				cfg.Store.Path = storePath
			}
			hf.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			configureLogging(cfg)
			inv.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			inv.Command = CommandPanel
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	record := func(name string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			inv.Command = name
			inv.Args = args
			return nil
		}
	}

	hostCmd := &cobra.Command{
		Use:   CommandHost,
		Short: "Host a page of media elements and process their audio",
		Long: "Loads WAV files as the page's media elements, plays them, and runs the\n" +
			"voice-removal controller behind a websocket control endpoint.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(inv.Audio)+len(inv.Video) == 0 {
				return fmt.Errorf("host needs at least one --audio or --video file")
			}
			inv.Command = CommandHost
			return nil
		},
	}
	hostCmd.Flags().StringArrayVarP(&inv.Audio, "audio", "m", nil, "WAV file to host as an audio element (repeatable)")
	hostCmd.Flags().StringArrayVar(&inv.Video, "video", nil, "WAV file to host as a video element's soundtrack (repeatable)")
	hostCmd.Flags().BoolVar(&inv.Loop, "loop", false, "Loop every element")
	hostCmd.Flags().BoolVar(&inv.Suspended, "suspended", false,
		"Create processing contexts suspended, as under an autoplay policy")
	hostCmd.Flags().IntVarP(&hf.device, "device", "d", config.DefaultOutputDevice,
		"Output device ID. Use 'list' command to see available devices.")
	hostCmd.Flags().Float64VarP(&hf.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	hostCmd.Flags().IntVarP(&hf.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	hostCmd.Flags().BoolVarP(&hf.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	hostCmd.Flags().StringVarP(&hf.output, "output", "o", config.DefaultOutputFile,
		"Render to this WAV file instead of the output device")
	hostCmd.Flags().Float64Var(&hf.seconds, "seconds", 10, "Length of an offline render")
	hostCmd.Flags().BoolVar(&hf.rebuildOnEQ, "rebuild-on-eq", config.DefaultRebuildOnEQ,
		"Rebuild an active graph when bass or clarity leaves 0 dB")
	rootCmd.AddCommand(hostCmd)

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   CommandPanel,
			Short: "Open the terminal settings panel",
			Args:  cobra.NoArgs,
			RunE:  record(CommandPanel),
		},
		&cobra.Command{
			Use:     CommandSet + " key=value...",
			Short:   "Change settings and push them to the page",
			Example: "  " + buildInfo.Name + " set masterEnabled=on voiceGain=-40 muteMid=false",
			Args:    cobra.MinimumNArgs(1),
			RunE:    record(CommandSet),
		},
		&cobra.Command{
			Use:       CommandPreset + " NAME",
			Short:     "Apply a preset: soft, aggressive, factory or custom",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"soft", "aggressive", "factory", "custom"},
			RunE:      record(CommandPreset),
		},
		&cobra.Command{
			Use:   CommandSavePreset + " [NAME]",
			Short: "Save the current settings as the custom preset",
			Args:  cobra.MaximumNArgs(1),
			RunE:  record(CommandSavePreset),
		},
		&cobra.Command{
			Use:   CommandReinit,
			Short: "Tear down and rebuild the page's processing graph",
			Args:  cobra.NoArgs,
			RunE:  record(CommandReinit),
		},
		&cobra.Command{
			Use:   CommandStatus,
			Short: "Report whether processing is active on the page",
			Args:  cobra.NoArgs,
			RunE:  record(CommandStatus),
		},
		&cobra.Command{
			Use:   CommandList,
			Short: "List available audio output devices",
			Args:  cobra.NoArgs,
			RunE:  record(CommandList),
		},
	)

	// Shared Configuration
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML config file (default: ./voxcut.yaml, then ~/.config/voxcut/voxcut.yaml)")
	rootCmd.PersistentFlags().StringVarP(&address, "address", "a", config.DefaultListenAddress,
		"Address of the page host's control endpoint")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", config.DefaultStorePath,
		"Settings store file")

	// Debug Configuration
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return inv, nil
}

// apply folds the host flags the user set into cfg.
func (hf *hostFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Lookup("device") == nil {
		return // not the host command
	}
	if flags.Changed("device") {
		cfg.Audio.OutputDevice = hf.device
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = hf.sampleRate
	}
	if flags.Changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = hf.framesPerBuffer
	}
	if flags.Changed("low-latency") {
		cfg.Audio.LowLatency = hf.lowLatency
	}
	if flags.Changed("output") {
		cfg.Audio.OutputFile = hf.output
	}
	if flags.Changed("seconds") {
		cfg.Audio.RenderSeconds = hf.seconds
	}
	if flags.Changed("rebuild-on-eq") {
		cfg.Controller.RebuildOnEQ = hf.rebuildOnEQ
	}
}

func configureLogging(cfg *config.Config) {
	level, ok := applog.ParseLevel(cfg.LogLevel)
	if !ok {
		applog.Warnf("CLI: unknown log level %q, using info", cfg.LogLevel)
		level = applog.LevelInfo
	}
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
}
