package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/chiralscroll/internal/pkg/arbiter"
	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/gethiox/chiralscroll/internal/pkg/session"
	"github.com/gethiox/chiralscroll/internal/pkg/settings"
	"github.com/logrusorgru/aurora"
)

func statusLine(au aurora.Aurora, st arbiter.Status) string {
	enabled := au.Green("enabled").String()
	if !st.Enabled {
		enabled = au.Red("disabled").String()
	}

	switch st.Kind {
	case session.KindScroll:
		polarity := "winding up"
		switch {
		case st.Polarity > 0:
			polarity = "forward"
		case st.Polarity < 0:
			polarity = "backward"
		}
		return fmt.Sprintf("%s, scrolling on %s, %s, pulses: %d",
			enabled, colorForString(au, st.DeviceID).String(), polarity, st.Pulses)
	case session.KindNonScrolling:
		return fmt.Sprintf("%s, pointing on %s", enabled, colorForString(au, st.DeviceID).String())
	default:
		return fmt.Sprintf("%s, idle", enabled)
	}
}

func touchpadLines(au aurora.Aurora, tp *touchpad, ds settings.Device) []string {
	area := tp.geometry[0].Logical
	state := au.Green("on").String()
	if !ds.Enabled {
		state = au.Red("off").String()
	}
	return []string{
		fmt.Sprintf("%s: %s", colorForString(au, tp.id).String(), colorForString(au, tp.name).String()),
		fmt.Sprintf(
			"└ %s, area: %dx%d, zones: v %.0f%% h %.0f%%, sens: v %.1f h %.1f, lockout: %dms",
			state, area.Width(), area.Height(),
			ds.VScrollZone*100, ds.HScrollZone*100,
			ds.VSens, ds.HSens, ds.TypingLockoutMs,
		),
	}
}

// offlineLine lists devices with stored settings that are not connected right now
func offlineLine(au aurora.Aurora, known []string, connected []*touchpad) []string {
	online := make(map[string]bool, len(connected))
	for _, tp := range connected {
		online[tp.name] = true
	}

	var offline []string
	for _, name := range known {
		if !online[name] {
			offline = append(offline, au.Faint(name).String())
		}
	}
	if len(offline) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("not connected: %s", strings.Join(offline, ", "))}
}

func pad(s string, width int) string {
	free := width - rawStringLen(s)
	if free < 0 {
		free = 0
	}
	return s + strings.Repeat(" ", free)
}

func overviewView(g *gocui.Gui, colors bool, arb *arbiter.Arbiter, store *settings.Store, touchpads *registry) {
	view, err := g.View(ViewOverview)
	if err != nil {
		panic(err)
	}

	au := aurora.NewAurora(colors)

	for {
		viewData := []string{statusLine(au, arb.Status())}
		connected := touchpads.list()
		for _, tp := range connected {
			viewData = append(viewData, touchpadLines(au, tp, store.Device(tp.name))...)
		}
		viewData = append(viewData, offlineLine(au, store.DeviceNames(), connected)...)

		x, y := view.Size()

		view.Rewind()
		for i := 0; i < y; i++ {
			line := ""
			if i < len(viewData) {
				line = viewData[i]
			}
			view.Write([]byte(pad(line, x)))
			view.Write([]byte{'\n'})
		}
		time.Sleep(time.Millisecond * 100)
	}
}

func logView(g *gocui.Gui, color bool, logLevel, bufSize int) {
	feeder, err := NewFeeder(g, ViewLogs, logLevel, aurora.NewAurora(color))
	if err != nil {
		panic(err)
	}

	buf := newLogBuffer(bufSize)

	var newMessage = make(chan bool, 1)
	var done = make(chan bool)

	go func() {
		for msg := range logger.Messages {
			buf.WriteMessage(msg)
			select {
			case newMessage <- true:
			default:
			}
		}
		close(done)
	}()

	ticker := time.NewTicker(time.Millisecond * 100)
	defer ticker.Stop()

	var lastX, lastY int
	for {
		select {
		case <-done:
			return
		case <-newMessage:
		case <-ticker.C:
			x, y := feeder.view.Size()
			if x == lastX && y == lastY {
				continue
			}
			lastX, lastY = x, y
		}

		feeder.view.Rewind()
		_, y := feeder.view.Size()
		for _, msg := range buf.ReadLastMessages(y) {
			feeder.Write(msg)
		}
	}
}
