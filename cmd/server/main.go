// cmd/server/main.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/n1kozver/memelords/internal/auth"
	"github.com/n1kozver/memelords/internal/cache"
	"github.com/n1kozver/memelords/internal/database"
	"github.com/n1kozver/memelords/internal/handlers"
	"github.com/n1kozver/memelords/internal/middleware"
)

type config struct {
	bind    string
	port    int
	verbose bool
}

func (c *config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return nil
}

func newCmd(cfg *config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MEMELORDS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "memelords",
		Short:         "Real-time server for a round-based meme card party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MEMELORDS_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: MEMELORDS_PORT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging (env: MEMELORDS_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Changed && v.IsSet(f.Name) {
			fs.Set(f.Name, v.GetString(f.Name))
		}
	})

	return cmd
}

func serve(cfg *config) error {
	logger := logrus.New()
	if cfg.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	auth.Init()
	database.ConnectDB()
	if err := cache.ConnectRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	srv := handlers.NewGameServer(logger, database.CardStore{}, database.SituationStore{}, cache.HistoryQueue{})
	logged := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)

	// discord oauth
	mux.HandleFunc("/auth/discord", handlers.DiscordAuthHandler)

	// lobby endpoints
	mux.Handle("/game/create", logged(handlers.CreateLobbyHandler(srv)))
	mux.Handle("/game/lobby", logged(handlers.GetLobbyHandler(srv)))
	mux.Handle("/game/qr", logged(handlers.LobbyQRHandler(srv)))

	// game websocket
	mux.Handle("/game/ws", logged(handlers.GameWSHandler(logger, srv)))

	addr := fmt.Sprintf("%s:%d", cfg.bind, cfg.port)
	logger.Infof("Running on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func main() {
	cfg := &config{}
	if err := newCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
