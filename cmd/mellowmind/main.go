// Package main provides the interactive mood-based playback CLI.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mellowmind/internal/app/insight"
	"github.com/osa030/mellowmind/internal/app/preference"
	"github.com/osa030/mellowmind/internal/app/session"
	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/infra/classifier"
	"github.com/osa030/mellowmind/internal/infra/config"
	"github.com/osa030/mellowmind/internal/infra/logger"
	"github.com/osa030/mellowmind/internal/infra/spotify"
	"github.com/osa030/mellowmind/internal/infra/store"
)

var (
	app        = kingpin.New("mellowmind", "Mood-based music recommendation and playback")
	configPath = app.Flag("config", "Path to config file").Default("config/mellowmind.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
	userName   = app.Flag("user", "Listener name (overrides config)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(logger.Config{Verbose: *verbose, File: *logfile}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	user := cfg.User.Name
	if *userName != "" {
		user = *userName
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
	})
	if err != nil {
		zlog.Fatal().Msgf("Failed to initialize Spotify client: %v", err)
	}

	moods, err := classifier.New(cfg.Classifier.Settings)
	if err != nil {
		zlog.Fatal().Msgf("Failed to initialize classifier: %v", err)
	}

	prefs := store.New(cfg.Store.Path, preference.NewLearner())

	ctrl := session.NewController(user, session.Config{
		RecommendLimit: cfg.Session.RecommendLimit,
		RefillLimit:    cfg.Session.RefillLimit,
		PollInterval:   cfg.Session.PollInterval(),
		ErrorBackoff:   cfg.Session.ErrorBackoff(),
		DeviceID:       cfg.Session.DeviceID,
	}, moods, client, client, client, prefs)
	defer ctrl.Close()

	fmt.Printf("Welcome to MellowMind, %s!\n", user)
	fmt.Println("Tell me how you feel and I'll pick the music. Type 'help' for commands.")

	runShell(ctx, ctrl, prefs, user, cfg.Insights.Clusters)

	if err := prefs.Save(); err != nil {
		zlog.Warn().Msgf("Failed to save preferences: %v", err)
	}
	fmt.Println("Goodbye!")
}

// runShell reads commands from stdin until EOF, quit, or signal.
func runShell(ctx context.Context, ctrl *session.Controller, prefs *store.Store, user string, clusters int) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(cmd) {
		case "quit", "exit":
			return
		case "help":
			printHelp()
		case "mood":
			handleMood(ctx, ctrl, arg)
		case "list":
			printQueue(ctrl)
		case "play":
			handlePlay(ctx, ctrl, arg)
		case "pause":
			report(ctrl.Pause(ctx))
		case "resume":
			report(ctrl.Resume(ctx))
		case "next":
			report(ctrl.Next(ctx))
		case "previous", "prev":
			report(ctrl.Previous(ctx))
		case "like":
			handleRating(ctx, ctrl, true)
		case "dislike":
			handleRating(ctx, ctrl, false)
		case "continuous":
			if ctrl.ToggleContinuous(ctx) {
				fmt.Println("Continuous playback started.")
			} else {
				fmt.Println("Continuous playback stopped.")
			}
		case "devices":
			printDevices(ctx, ctrl)
		case "device":
			handleDevice(ctx, ctrl, arg)
		case "save", "save_playlist":
			handleSave(ctx, ctrl)
		case "insights":
			printInsights(prefs, user, clusters)
		case "status":
			printStatus(ctrl)
		default:
			// Bare text is treated as a mood description.
			handleMood(ctx, ctrl, line)
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  mood <text>   Describe how you feel (or just type the text)
  list          Show the current recommendation queue
  play <n>      Play track n from the queue
  pause         Pause playback
  resume        Resume playback
  next          Skip to the next track
  previous      Go back to the previous track
  like          Like the current track
  dislike       Dislike the current track
  continuous    Toggle continuous playback
  devices       List available playback devices
  device <id>   Select a playback device (empty picks the first)
  save          Save the current queue as a Spotify playlist
  insights      Show your taste clusters
  status        Show the current playback state
  quit          Save preferences and exit`)
}

func handleMood(ctx context.Context, ctrl *session.Controller, text string) {
	if text == "" {
		fmt.Println("Tell me how you feel, e.g.: mood I had a great day")
		return
	}
	e, candidates, err := ctrl.SetMood(ctx, text)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Sounds like you're feeling %s. Here's what I found:\n", e)
	for i, t := range candidates {
		fmt.Printf("  %2d. %s - %s\n", i+1, t.Name, t.Artist)
	}
	fmt.Println("Use 'play <n>' or 'continuous' to start listening.")
}

func printQueue(ctrl *session.Controller) {
	snap := ctrl.Snapshot()
	if len(snap.Queue) == 0 {
		fmt.Println("No queue yet. Set a mood first.")
		return
	}
	for i, t := range snap.Queue {
		marker := "  "
		if snap.Current != nil && snap.Current.Track.ID == t.ID {
			marker = "* "
		}
		fmt.Printf("%s%2d. %s - %s\n", marker, i+1, t.Name, t.Artist)
	}
}

func handlePlay(ctx context.Context, ctrl *session.Controller, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Println("Usage: play <number>")
		return
	}
	report(ctrl.Play(ctx, n-1))
}

func handleRating(ctx context.Context, ctrl *session.Controller, liked bool) {
	if !ctrl.RateCurrentTrack(ctx, liked) {
		fmt.Println("Nothing is playing.")
		return
	}
	if liked {
		fmt.Println("Noted. More like this one.")
	} else {
		fmt.Println("Noted. Less of that.")
	}
}

func printDevices(ctx context.Context, ctrl *session.Controller) {
	devices, err := ctrl.Devices(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(devices) == 0 {
		fmt.Println("No devices found. Open Spotify on one of your devices.")
		return
	}
	for _, d := range devices {
		active := ""
		if d.Active {
			active = " (active)"
		}
		fmt.Printf("  %s  %s [%s]%s\n", d.ID, d.Name, d.Type, active)
	}
}

func handleDevice(ctx context.Context, ctrl *session.Controller, arg string) {
	id, err := ctrl.SelectDevice(ctx, arg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Playback transferred to %s.\n", id)
}

func handleSave(ctx context.Context, ctrl *session.Controller) {
	url, err := ctrl.SavePlaylist(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Playlist saved: %s\n", url)
}

func printInsights(prefs *store.Store, user string, clusters int) {
	p := prefs.Load(user)
	cs, err := insight.TasteClusters(p, clusters)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(cs) == 0 {
		fmt.Println("Not enough liked tracks yet. Keep listening and rating.")
		return
	}
	for i, c := range cs {
		fmt.Printf("Cluster %d (%d tracks", i+1, c.Size)
		if c.TopEmotion != "" {
			fmt.Printf(", mostly %s", c.TopEmotion)
		}
		fmt.Println("):")
		for _, f := range []string{emotion.FeatureValence, emotion.FeatureEnergy, emotion.FeatureDanceability, emotion.FeatureAcousticness} {
			fmt.Printf("  %-13s %.2f\n", f, c.Center[f])
		}
	}
}

func printStatus(ctrl *session.Controller) {
	snap := ctrl.Snapshot()
	fmt.Printf("State: %s\n", snap.State)
	if snap.Emotion != "" {
		fmt.Printf("Mood: %s\n", snap.Emotion)
	}
	if snap.Current != nil {
		fmt.Printf("Current: %s - %s\n", snap.Current.Track.Name, snap.Current.Track.Artist)
	}
	if ctrl.Continuous() {
		fmt.Println("Continuous playback is on.")
	}
}

func report(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}
