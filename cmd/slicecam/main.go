package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/slicecam/internal/app"
	"github.com/ayusman/slicecam/internal/config"
	"github.com/ayusman/slicecam/internal/server"
	"github.com/ayusman/slicecam/internal/session"
	"github.com/ayusman/slicecam/internal/store"
	"github.com/ayusman/slicecam/internal/tray"
)

func main() {
	fmt.Println("SliceCam - Hand Tracked Fruit Slicing")

	configPath := flag.String("config", "", "path to config.yaml (default ~/.slicecam/config.yaml)")
	addr := flag.String("addr", "", "listen address, overrides the config file")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	verbose := flag.Bool("v", false, "log every HTTP request")
	flag.Parse()

	dataDir, err := config.DataDir()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	if *configPath == "" {
		*configPath = filepath.Join(dataDir, "config.yaml")
	}
	settings, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		settings.Server.Addr = *addr
	}

	st, err := store.New(settings.StorePath(dataDir))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	application, err := app.New(app.Config{Settings: settings, Store: st})
	if err != nil {
		log.Fatalf("Failed to create game: %v", err)
	}
	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start game: %v", err)
	}
	defer application.Stop()

	webDir := findWebDir(settings.Server.StaticDir, dataDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Game:      application,
		Camera:    application.Camera(),
		Logging:   *verbose,
	})

	ln, err := net.Listen("tcp", settings.Server.Addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", settings.Server.Addr, err)
	}
	url := "http://" + ln.Addr().String()
	fmt.Printf("Starting server on %s\n", url)

	httpSrv := &http.Server{Handler: srv}
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	defer httpSrv.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	if *noTray {
		<-signals
		return
	}

	t := tray.New()
	t.OnTogglePause(application.TogglePause)
	t.OnOpen(func() { openBrowser(url) })
	application.OnGameOver(func(r store.Result) { t.SetLastScore(r.Score) })
	go followPause(application, t)
	go func() {
		<-signals
		t.Quit()
	}()

	// Blocks until Quit is clicked or a signal arrives.
	t.Run()
}

// followPause keeps the tray label in step with pauses made elsewhere.
func followPause(a *app.App, t *tray.Tray) {
	frames, cancel := a.Subscribe()
	defer cancel()

	paused := false
	for f := range frames {
		if p := f.Phase == session.PhasePaused; p != paused {
			paused = p
			t.SetPaused(p)
		}
	}
}

var _ server.Game = (*app.App)(nil)

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
		return
	}
	go cmd.Wait()
}

// findWebDir searches for the renderer's web directory. It checks the
// configured directory, then "web", "../web", "../../web" and finally
// dataDir/web. Returns the first existing directory or empty string if none
// found.
func findWebDir(configured, dataDir string) string {
	candidates := []string{"web", "../web", "../../web"}
	if configured != "" {
		candidates = append([]string{configured}, candidates...)
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
