//go:build ignore

package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// evdev and uinput are linux only
var availableTargets = []target{
	{goarch: "arm", goarm: "6"},
	{goarch: "arm", goarm: "7"},
	{goarch: "arm64"},
	{goarch: "386"},
	{goarch: "amd64"},
}

type target struct {
	goarch string
	goarm  string
}

func (t target) String() string {
	if t.goarm != "" {
		return fmt.Sprintf("linux-%s-v%s", t.goarch, t.goarm)
	}
	return fmt.Sprintf("linux-%s", t.goarch)
}

func (t target) env() []string {
	env := []string{"GOOS=linux", "GOARCH=" + t.goarch}
	if t.goarm != "" {
		env = append(env, "GOARM="+t.goarm)
	}
	return env
}

type options struct {
	project  string
	basename string
	version  string
	cgo      bool
	race     bool
}

func (o options) args(binaryPath string) []string {
	args := []string{"build", "-trimpath", "-o", binaryPath}
	if o.version != "" {
		args = append(args, "-ldflags", "-X main.version="+o.version)
	}
	if o.race {
		args = append(args, "-race")
	}
	return append(args, o.project)
}

type buildError struct {
	target         target
	stdout, stderr string
}

func build(t target, o options) *buildError {
	binaryPath := fmt.Sprintf("./builds/%s-%s", o.basename, t)

	cmd := exec.Command("go", o.args(binaryPath)...)
	cmd.Env = append(os.Environ(), t.env()...)
	if o.cgo {
		cmd.Env = append(cmd.Env, "CGO_ENABLED=1")
	} else {
		cmd.Env = append(cmd.Env, "CGO_ENABLED=0")
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &buildError{target: t, stdout: stdout.String(), stderr: stderr.String()}
	}
	return nil
}

func selectTargets(selection string) ([]target, error) {
	if selection == "all" {
		return availableTargets, nil
	}

	var selected []target
	for _, name := range strings.Split(selection, ",") {
		var found bool
		for _, t := range availableTargets {
			if t.String() == name {
				selected = append(selected, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("target not found: %s", name)
		}
	}
	return selected, nil
}

func gitVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func main() {
	log.SetFlags(log.Ltime)

	var names []string
	for _, t := range availableTargets {
		names = append(names, t.String())
	}

	var o options
	selection := flag.String("platforms", "all", fmt.Sprintf(
		"comma-separated target platform list\navailable: %s", strings.Join(names, ",")),
	)
	flag.StringVar(&o.project, "project", "./cmd/chiralscroll/", "choose project directory")
	flag.StringVar(&o.basename, "base", "ChiralScroll", "base filename for output binaries")
	flag.StringVar(&o.version, "version", gitVersion(), "version stamped into binaries")
	flag.BoolVar(&o.cgo, "cgo", false, "cgo")
	flag.BoolVar(&o.race, "race", false, "include race detector")
	flag.Parse()

	targets, err := selectTargets(*selection)
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
	log.Printf("selected targets: %v, version: %q", targets, o.version)

	var failed = make(chan *buildError, len(targets))

	wg := sync.WaitGroup{}
	for _, t := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			log.Printf("building target %s          %s", o.project, t)
			if err := build(t, o); err != nil {
				log.Printf("building target %s failed:  %s", o.project, t)
				failed <- err
				return
			}
			log.Printf("building target %s success: %s", o.project, t)
		}(t)
	}
	wg.Wait()
	close(failed)

	var ok = true
	for err := range failed {
		ok = false
		fmt.Printf("\n>>> Failed build: project: %s, base: %s, target: %s\n", o.project, o.basename, err.target)
		if err.stdout != "" {
			fmt.Printf("======== STDOUT ========\n%s========================\n", err.stdout)
		}
		if err.stderr != "" {
			fmt.Printf("======== STDERR ========\n%s========================\n", err.stderr)
		}
	}

	if !ok {
		os.Exit(1)
	}
}
