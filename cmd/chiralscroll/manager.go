package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gethiox/chiralscroll/internal/pkg/arbiter"
	"github.com/gethiox/chiralscroll/internal/pkg/input"
	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"github.com/gethiox/chiralscroll/internal/pkg/scroller"
	"github.com/gethiox/chiralscroll/internal/pkg/touch"
	"github.com/holoplot/go-evdev"
	"go.uber.org/zap"
)

// handlers opened for every device, keyboards are needed for typing lockout
var watchedHandlers = []input.HandlerType{input.DI_TYPE_TOUCHPAD, input.DI_TYPE_STD_KBD, input.DI_TYPE_NKRO_KBD}

type touchpad struct {
	id       string
	name     string
	geometry touch.Geometry
}

func (t *touchpad) ID() string               { return t.id }
func (t *touchpad) Name() string             { return t.name }
func (t *touchpad) Geometry() touch.Geometry { return t.geometry }

// PrimaryContactID returns 0, evdev slot index is used as contact identifier
// and the first finger always lands in slot 0
func (t *touchpad) PrimaryContactID() uint32 { return 0 }

func newTouchpad(info input.DeviceInfo, src input.AbsInfoSource) (*touchpad, *input.MTDecoder, error) {
	infos, err := src.AbsInfos()
	if err != nil {
		return nil, nil, fmt.Errorf("reading axes failed: %w", err)
	}

	geometry, err := input.Geometry(staticAbs(infos))
	if err != nil {
		return nil, nil, err
	}

	tp := &touchpad{
		id:       info.EventPath(),
		name:     info.Name,
		geometry: geometry,
	}
	return tp, input.NewMTDecoder(infos), nil
}

type staticAbs map[evdev.EvCode]evdev.AbsInfo

func (s staticAbs) AbsInfos() (map[evdev.EvCode]evdev.AbsInfo, error) {
	return s, nil
}

// registry keeps connected touchpads for overview
type registry struct {
	mu sync.Mutex
	m  map[string]*touchpad
}

func newRegistry() *registry {
	return &registry{m: make(map[string]*touchpad)}
}

func (r *registry) add(t *touchpad) {
	r.mu.Lock()
	r.m[t.id] = t
	r.mu.Unlock()
}

func (r *registry) remove(t *touchpad) {
	r.mu.Lock()
	delete(r.m, t.id)
	r.mu.Unlock()
}

func (r *registry) list() []*touchpad {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*touchpad, 0, len(r.m))
	for _, t := range r.m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].id < out[j].id
	})
	return out
}

// item is either assembled touch frame or keyboard activity when touchpad is nil
type item struct {
	touchpad *touchpad
	frame    touch.Frame
}

func send(ctx context.Context, items chan<- item, it item) {
	select {
	case items <- it:
	case <-ctx.Done():
	}
}

// processItems is the only owner of arbiter, every gesture decision happens here
func processItems(ctx context.Context, wg *sync.WaitGroup, arb *arbiter.Arbiter, items <-chan item) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			arb.Close()
			log.Info("Processing touch frames stopped", logger.Debug)
			return
		case it := <-items:
			if it.touchpad == nil {
				arb.ProcessKeyboardEvent()
				continue
			}
			arb.ProcessFrame(it.touchpad, it.frame)
		}
	}
}

type deviceProcessor struct {
	device    input.Device
	touchpad  *touchpad
	decoder   *input.MTDecoder
	assembler *touch.FrameAssembler
	items     chan<- item
	fatal     func(error)
	logFrames bool
}

func (p *deviceProcessor) run(ctx context.Context, events <-chan input.InputEvent) {
	var failed bool

	for ev := range events {
		if failed {
			continue
		}

		ht := ev.Source.HandlerType()
		switch {
		case ht == input.DI_TYPE_TOUCHPAD:
			if p.decoder == nil {
				continue
			}
			report, ok := p.decoder.Feed(ev.Event)
			if !ok {
				continue
			}
			frame, ok, err := p.assembler.ProcessReport(report)
			if err != nil {
				failed = true
				p.fatal(fmt.Errorf("%s: %w", p.touchpad.name, err))
				continue
			}
			if !ok {
				continue
			}
			if p.logFrames {
				log.Info(fmt.Sprintf("frame: %v", frame), zap.String("device_name", p.touchpad.name), logger.Frame)
			}
			send(ctx, p.items, item{touchpad: p.touchpad, frame: frame})
		case ht.IsKeyboard():
			if ev.Event.Type == evdev.EV_KEY && (ev.Event.Value == 1 || ev.Event.Value == 2) {
				send(ctx, p.items, item{})
			}
		}
	}

	if p.touchpad != nil {
		// empty frame ends gesture of vanished touchpad
		send(ctx, p.items, item{touchpad: p.touchpad})
	}
}

// runManager is the main program process, before exiting from that function it needs to ensure that
// all goroutine execution has completed
func runManager(
	ctx context.Context, cfg ChiralScrollConfig, policy touch.Policy,
	arb *arbiter.Arbiter, suppressor *scroller.GrabSuppressor, touchpads *registry,
	fatal func(error), logFrames bool,
) {
	wg := sync.WaitGroup{}
	items := make(chan item, 64)

	wg.Add(1)
	go processItems(ctx, &wg, arb, items)

	log.Info("Run manager", logger.Debug)
device:
	for d := range input.MonitorNewDevices(ctx, cfg.ChiralScroll.StabilizationPeriod, cfg.ChiralScroll.DiscoveryRate) {
		if len(d.HandlersOf(watchedHandlers...)) == 0 {
			log.Info("Device ignored", zap.String("device_name", d.Name), logger.Debug)
			continue
		}

		var events <-chan input.InputEvent
		var err error

		appearedAt := time.Now()

		log.Info("Opening device...", zap.String("device_name", d.Name), logger.Debug)
		for {
			events, err = d.ProcessEvents(ctx, watchedHandlers...)
			if err != nil {
				if time.Since(appearedAt) > time.Second*5 {
					log.Info(fmt.Sprintf("failed to open device on time, giving up: %v", err), zap.String("device_name", d.Name), logger.Warning)
					continue device
				}
				time.Sleep(time.Millisecond * 100)
				continue
			}
			break
		}

		p := &deviceProcessor{
			device:    d,
			assembler: touch.NewFrameAssembler(policy),
			items:     items,
			fatal:     fatal,
			logFrames: logFrames,
		}

		if dev, ok := d.Evdev(input.DI_TYPE_TOUCHPAD); ok {
			info := d.Handlers[input.DI_TYPE_TOUCHPAD]
			p.touchpad, p.decoder, err = newTouchpad(info, dev)
			if err != nil {
				log.Info(fmt.Sprintf("touchpad unusable: %v", err), zap.String("device_name", info.Name), logger.Warning)
				p.touchpad, p.decoder = nil, nil
			}
		}

		if p.touchpad != nil {
			touchpads.add(p.touchpad)
			if cfg.ChiralScroll.SuppressPointer {
				dev, _ := d.Evdev(input.DI_TYPE_TOUCHPAD)
				err := suppressor.Add(p.touchpad.id, dev)
				if err != nil {
					log.Info(fmt.Sprintf("failed to grab touchpad: %v", err), zap.String("device_name", p.touchpad.name), logger.Warning)
				}
			}
			log.Info(fmt.Sprintf("Touchpad connected, area: %+v", p.touchpad.geometry[0].Logical),
				zap.String("device_name", p.touchpad.name),
				zap.String("handler_event", p.touchpad.id),
				logger.Info,
			)
		} else {
			log.Info("Keyboard connected", zap.String("device_name", d.Name), logger.Info)
		}

		wg.Add(1)
		go func(p *deviceProcessor) {
			defer wg.Done()
			p.run(ctx, events)
			if p.touchpad != nil {
				suppressor.Remove(p.touchpad.id)
				touchpads.remove(p.touchpad)
			}
			log.Info("Device disconnected", zap.String("device_name", p.device.Name), logger.Info)
		}(p)
	}
	wg.Wait()
	log.Info("Exit manager", logger.Debug)
}
