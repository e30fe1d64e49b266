package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/chiralscroll/internal/pkg/arbiter"
	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/gethiox/chiralscroll/internal/pkg/scroller"
	"github.com/gethiox/chiralscroll/internal/pkg/settings"
	"github.com/gethiox/chiralscroll/internal/pkg/touch"
	"github.com/logrusorgru/aurora"
	"go.uber.org/atomic"
)

var log = logger.GetLogger()

// set by build.go
var version = "dev"

func handleSigs(wg *sync.WaitGroup, sigs <-chan os.Signal, cancel func(), server *http.Server, g *gocui.Gui) {
	defer wg.Done()
	var counter int
	for sig := range sigs {
		if counter > 0 {
			fmt.Println("Dirty exit")
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("signal received: %v", sig), logger.Debug)
		cancel()
		if server != nil {
			err := server.Close()
			if err != nil {
				log.Info(fmt.Sprintf("failed to close server: %v", err), logger.Warning)
			}
		}
		if g != nil {
			g.Close()
		}
		counter++
	}
}

// handleToggle flips global enabled flag on every SIGUSR1, handy for a desktop shortcut
func handleToggle(wg *sync.WaitGroup, toggles <-chan os.Signal, store *settings.Store, path string) {
	defer wg.Done()
	for range toggles {
		enabled := store.ToggleEnabled()
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		log.Info(fmt.Sprintf("Scrolling %s", state), logger.Info)

		err := store.Save(path)
		if err != nil {
			log.Info(fmt.Sprintf("failed to save settings: %v", err), logger.Warning)
		}
	}
}

// watchSettings reloads gesture settings whenever settings file changes
func watchSettings(ctx context.Context, wg *sync.WaitGroup, store *settings.Store, path string) {
	defer wg.Done()
	changes, err := settings.Watch(ctx, path)
	if err != nil {
		log.Info(fmt.Sprintf("settings hot-reload unavailable: %v", err), logger.Warning)
		return
	}

	for range changes {
		s, err := settings.Load(path)
		if err != nil {
			log.Info(fmt.Sprintf("settings reload failed, keeping previous ones: %v", err), logger.Warning)
			continue
		}
		store.Replace(s)
		log.Info("Settings reloaded", logger.Info)
	}
}

func runUI(cfg ChiralScrollConfig, ui bool, sigs chan os.Signal) *gocui.Gui {
	var g *gocui.Gui
	if ui {
		var err error
		g, err = GetCli()
		if err != nil {
			panic(err)
		}

		go func() {
			if err := g.MainLoop(); err != nil {
				if err != gocui.ErrQuit {
					panic(err)
				}
				g.Close()
				sigs <- syscall.SIGINT // pretend that we received signal when exited from gui
			}
			g.Close()
		}()

		go func() {
			for {
				g.Update(Layout)
				time.Sleep(cfg.ChiralScroll.LogViewRate)
			}
		}()

		time.Sleep(time.Millisecond * 500) // waiting for view init
	}
	return g
}

func runProfileServer(wg *sync.WaitGroup) *http.Server {
	var server *http.Server
	if *profile {
		addr := "0.0.0.0:8080"
		log.Info(fmt.Sprintf("profiling enabled and hosted on %s", addr), logger.Info)
		server = &http.Server{Addr: addr, Handler: nil}
		wg.Add(1)
		go func() {
			log.Info(fmt.Sprintf("profiling server exited: %v", server.ListenAndServe()), logger.Info)
			wg.Done()
		}()
	}
	return server
}

func printLogs(au aurora.Aurora) {
	if *silent {
		for range logger.Messages {
		}
		return
	}
	fmt.Printf("for nicer output use -ui flag\n")
	for data := range logger.Messages {
		msg, err := unpack(data)
		if err != nil {
			fmt.Printf("%s\n", string(data))
			continue
		}
		m := prepareString(msg, au, -1, *logLevel)
		if m != "" {
			fmt.Printf("%s\n", m)
		}
	}
}

var (
	profile  = flag.Bool("profile", false, "runs web server for performance profiling (go tool pprof)")
	ui       = flag.Bool("ui", false, "engage debug ui")
	force256 = flag.Bool("256", false, "force 256 color mode")
	nocolor  = flag.Bool("nocolor", false, "disable color")
	logLevel = flag.Int("loglevel", 1,
		"logging level, each level enables additional information class (0-3, default: 1)\n"+
			"more verbose levels may slightly impact overall performance\n"+
			"\navailable options:\n"+
			"0: general info (eg. device appearance status)\n"+
			"1: scroll session start and end\n"+
			"2: every emitted scroll pulse\n"+
			"3: every assembled touch frame",
	)
	silent     = flag.Bool("silent", false, "no output logging, best performance")
	strict     = flag.Bool("strict", false, "treat wrong number of contacts in a touch frame as fatal error")
	configPath = flag.String("config", configDir+"/chiralscroll.config", "application config file")
	list       = flag.Bool("list", false, "print detected input devices with touchpad geometry and exit")
)

func main() {
	flag.Parse()
	*logLevel += 2

	if *force256 {
		os.Setenv("TERM", "xterm-256color")
	}
	au := aurora.NewAurora(!*nocolor)

	if *list {
		go logger.Drain()
		err := listDevices(os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	var exitCode = atomic.NewInt32(0)

	log.Info(fmt.Sprintf("ChiralScroll %s", version), logger.Info)

	cfg, cfgErr := loadAppConfig()
	if cfgErr != nil {
		cfg = defaultConfig()
	}

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	var toggles = make(chan os.Signal, 1)
	signal.Notify(toggles, syscall.SIGUSR1)
	ctx, cancel := context.WithCancel(context.Background())

	g := runUI(cfg, *ui && !*silent, sigs)

	var logsDone = make(chan bool)
	go func() {
		if g != nil {
			logView(g, !*nocolor, *logLevel, cfg.ChiralScroll.LogBufferSize)
		} else {
			printLogs(au)
		}
		close(logsDone)
	}()

	// this wait-group has to be propagated everywhere where usual logging appear
	wg := sync.WaitGroup{}

	server := runProfileServer(&wg)

	wg.Add(1)
	go handleSigs(&wg, sigs, cancel, server, g)

	if cfgErr != nil {
		log.Info(cfgErr.Error(), logger.Error)
		exitCode.Store(1)
	} else {
		run(ctx, cancel, &wg, cfg, g, toggles, exitCode)
	}
	cancel()

	log.Info("waiting...", logger.Debug)
	signal.Stop(sigs)
	signal.Stop(toggles)
	close(sigs)
	close(toggles)

	// closing logger can be safely invoked only when all internally running goroutines (that may emit logs) are done
	wg.Wait()
	close(logger.Messages)
	<-logsDone

	os.Exit(int(exitCode.Load()))
}

func loadAppConfig() (ChiralScrollConfig, error) {
	err := createConfigDirectoryIfNeeded()
	if err != nil {
		return ChiralScrollConfig{}, err
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return ChiralScrollConfig{}, err
	}
	log.Info(fmt.Sprintf("config: %+v", cfg), logger.Debug)
	return cfg, nil
}

func run(
	ctx context.Context, cancel func(), wg *sync.WaitGroup,
	cfg ChiralScrollConfig, g *gocui.Gui, toggles <-chan os.Signal, exitCode *atomic.Int32,
) {
	settingsPath := cfg.ChiralScroll.SettingsFile
	s, err := settings.Load(settingsPath)
	if err != nil {
		log.Info(fmt.Sprintf("%v, using defaults", err), logger.Warning)
		s = settings.Default()
	}
	store := settings.NewStore(s)

	wg.Add(1)
	go handleToggle(wg, toggles, store, settingsPath)

	wg.Add(1)
	go watchSettings(ctx, wg, store, settingsPath)

	wheel, err := scroller.NewVirtualWheel(cfg.ChiralScroll.VirtualDeviceName)
	if err != nil {
		log.Info(err.Error(), logger.Error)
		exitCode.Store(1)
		cancel()
		return
	}
	defer func() {
		err := wheel.Close()
		if err != nil {
			log.Info(fmt.Sprintf("failed to close virtual wheel: %v", err), logger.Warning)
		}
	}()

	suppressor := scroller.NewGrabSuppressor()
	arb := arbiter.NewArbiter(
		store,
		scroller.New(wheel, scroller.Vertical, suppressor),
		scroller.New(wheel, scroller.Horizontal, suppressor),
	)

	touchpads := newRegistry()
	if g != nil {
		go overviewView(g, !*nocolor, arb, store, touchpads)
	}

	policy := touch.Lenient
	if *strict {
		policy = touch.Strict
	}

	fatal := func(err error) {
		log.Info(fmt.Sprintf("fatal: %v", err), logger.Error)
		exitCode.Store(1)
		cancel()
	}

	runManager(ctx, cfg, policy, arb, suppressor, touchpads, fatal, *logLevel >= logger.FrameLvl)

	err = store.Save(settingsPath)
	if err != nil {
		log.Info(fmt.Sprintf("failed to save settings: %v", err), logger.Warning)
	}
}
