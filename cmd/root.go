package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	config "github.com/CodeAndHammer/whackamole/internal/config"
	difficulty "github.com/CodeAndHammer/whackamole/internal/difficulty"
	models "github.com/CodeAndHammer/whackamole/internal/models"
	server "github.com/CodeAndHammer/whackamole/internal/server"
	tui "github.com/CodeAndHammer/whackamole/internal/tui"
	util "github.com/CodeAndHammer/whackamole/internal/util"
)

type flagValues struct {
	configPath string
	port       string
	duration   int
	slots      int
	level      difficulty.Level
}

var flags = flagValues{level: difficulty.Normal}

var rootCmd = &cobra.Command{
	Use:   "whackamole",
	Short: "Whack-a-mole in the browser or the terminal",
	Long: `whackamole serves a whack-a-mole game over HTTP, one game per
browser session. Moles pop up in random holes; click them before they hide.

Run with no arguments to serve the web game
	whackamole

Play in the terminal instead
	whackamole play --difficulty hard
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web game",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		util.SetupLogger(cfg.LogLevel, cfg.Production)
		util.LogInfo("Starting whackamole in %s mode", map[bool]string{true: "production", false: "development"}[cfg.Production])
		return server.Run(models.NewApp(cfg))
	},
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Slots > 9 {
			return fmt.Errorf("terminal board supports at most 9 holes, got %d: %w", cfg.Slots, config.ErrInvalidConfig)
		}
		return tui.Run(cfg)
	},
}

// loadConfig layers explicitly set flags over the file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	set := cmd.Flags()
	if set.Changed("port") {
		cfg.Port = flags.port
	}
	if set.Changed("duration") {
		cfg.Duration = flags.duration
	}
	if set.Changed("slots") {
		cfg.Slots = flags.slots
	}
	if set.Changed("difficulty") {
		cfg.Difficulty = flags.level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		util.LogFatal("%v", err)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML config file")
	pf.StringVarP(&flags.port, "port", "p", "8080", "HTTP port to listen on")
	pf.IntVarP(&flags.duration, "duration", "d", 10, "Game length, in seconds")
	pf.IntVarP(&flags.slots, "slots", "s", 9, "Number of holes on the board")
	pf.Var(&flags.level, "difficulty", `Mole speed.
easy: 1.5s per mole
normal: 1s per mole
hard: random between 0.6s and 1.2s`)

	rootCmd.AddCommand(serveCmd, playCmd)
}
