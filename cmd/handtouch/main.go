package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/handtouch/internal/app"
	"github.com/ayusman/handtouch/internal/config"
	"github.com/ayusman/handtouch/internal/detector"
	"github.com/ayusman/handtouch/internal/emitter"
	"github.com/ayusman/handtouch/internal/server"
	"github.com/ayusman/handtouch/internal/store"
	"github.com/ayusman/handtouch/internal/tracking"
	"github.com/ayusman/handtouch/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	camera := flag.String("camera", "", "camera device index or stream URL (overrides config)")
	flag.Parse()

	fmt.Println("Handtouch - Fingertip Touch Detection")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *camera != "" {
		cfg.Camera.Source = *camera
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cfg.Tray.Enabled {
		if err := run(ctx, cfg, nil); err != nil {
			log.Fatal(err)
		}
		return
	}

	// The tray owns the main thread until Quit.
	t := tray.New()
	t.OnQuit(cancel)
	t.OnDashboard(func() { openBrowser(dashboardURL(cfg.Server.Addr)) })

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, t)
		t.Quit()
	}()
	t.Run()
	cancel()
	if err := <-errCh; err != nil {
		log.Fatal(err)
	}
}

// run builds the pipeline and its controller surfaces and blocks until ctx is
// cancelled or the camera stream ends.
func run(ctx context.Context, cfg *config.Config, t *tray.Tray) error {
	var st *store.Store
	if cfg.Store.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		var err error
		st, err = store.New(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("initialize store: %w", err)
		}
		defer st.Close()
	}

	factory, err := tracking.FactoryFor(cfg.Tracking.Algorithm)
	if err != nil {
		return err
	}

	a, err := app.New(app.Config{
		CameraSource: cfg.Camera.Source,
		DetectorConfig: detector.Config{
			MaxHands:        cfg.Detector.MaxHands,
			MinConfidence:   cfg.Detector.MinConfidence,
			MinTrackingConf: cfg.Detector.MinTrackingConf,
		},
		TrackerFactory: factory,
		Geometry: tracking.Geometry{
			BoxSize:      cfg.Tracking.BoxSize,
			MarkerRadius: cfg.Tracking.MarkerRadius,
			TouchRadius:  cfg.Tracking.TouchRadius,
		},
		SmoothingWindow: cfg.Tracking.SmoothingWindow,
		QueueCapacity:   cfg.Pipeline.QueueCapacity,
		PollTimeout:     cfg.Pipeline.PollTimeout,
		JoinTimeout:     cfg.Pipeline.JoinTimeout,
	})
	if err != nil {
		return fmt.Errorf("open camera %q: %w", cfg.Camera.Source, err)
	}

	var ctrl *controller
	if st != nil {
		sess, err := st.Journal().StartSession(cfg.Camera.Source)
		if err != nil {
			a.Stop()
			return fmt.Errorf("start session: %w", err)
		}
		defer func() {
			if err := st.Journal().EndSession(sess.ID); err != nil {
				log.Printf("Failed to end session: %v", err)
			}
		}()
		ctrl = newController(st.Journal(), sess.ID)
	} else {
		ctrl = newController(nil, "")
	}

	hub := server.NewTouchHub()
	ctrl.addNotifier(hubPublisher{hub: hub})

	var broker server.BrokerStatus
	if cfg.MQTT.Broker != "" {
		mq := emitter.NewMQTTEmitter(emitter.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		})
		if err := mq.Connect(); err != nil {
			log.Printf("MQTT disabled: %v", err)
		} else {
			defer mq.Close()
			ctrl.addNotifier(mq)
			broker = mq
		}
	}

	if t != nil {
		ctrl.onTouch = t.RecordTouch
		t.OnToggle(ctrl.setForwarding)
	}

	if err := a.Start(); err != nil {
		a.Stop()
		return err
	}

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	ctrlDone := make(chan struct{})
	go func() {
		defer close(ctrlDone)
		ctrl.run(runCtx, a.Events())
	}()

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Pipeline:  a,
		Touches:   hub,
		MQTT:      broker,
	})
	defer srv.Close()

	srvErr := make(chan error, 1)
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		srvErr <- srv.ListenAndServe(runCtx, cfg.Server.Addr)
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down")
	case <-a.Done():
		log.Println("Camera stream ended")
	case err := <-srvErr:
		if err != nil {
			log.Printf("Server failed: %v", err)
		}
	}

	if !a.Stop() {
		log.Println("Pipeline did not stop within the join timeout")
	}
	stopRun()
	<-ctrlDone

	// Deliver anything queued between the last Next and the stop.
	for {
		ev, ok := a.Events().TryNext()
		if !ok {
			break
		}
		ctrl.handle(ev)
	}

	stats := a.Stats()
	log.Printf("Processed %d frames, %d touches", stats.Frames, stats.Touches)
	return nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handtouch/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".handtouch", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func dashboardURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

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
	}
}
