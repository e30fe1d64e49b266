package input

import (
	"context"
	"fmt"
	"time"

	"github.com/gethiox/chiralscroll/internal/pkg/logger"
	"go.uber.org/zap"
)

type monitor struct {
	stabilizationPeriod time.Duration
	fetch               func() ([]DeviceInfo, error)

	tracked map[PhysicalID]Device
	pending map[PhysicalID]time.Time
}

// poll returns devices which exist for at least stabilization period and were not reported yet.
// Handlers of one device appear one by one, reporting them too early could miss some.
func (m *monitor) poll(now time.Time) ([]Device, error) {
	infos, err := m.fetch()
	if err != nil {
		return nil, err
	}
	current := Normalize(infos)

	var present = make(map[PhysicalID]bool, len(current))
	var ready []Device

	for _, d := range current {
		id := d.PhysicalUUID()
		present[id] = true

		if _, ok := m.tracked[id]; ok {
			continue
		}

		first, ok := m.pending[id]
		if !ok {
			m.pending[id] = now
			first = now
		}
		if now.Sub(first) < m.stabilizationPeriod {
			continue
		}

		delete(m.pending, id)
		m.tracked[id] = d
		ready = append(ready, d)
	}

	for id, d := range m.tracked {
		if !present[id] {
			log.Info("Device removed", zap.String("device_name", d.Name), logger.Debug)
			delete(m.tracked, id)
		}
	}
	for id := range m.pending {
		if !present[id] {
			delete(m.pending, id)
		}
	}

	return ready, nil
}

// MonitorNewDevices reports every device appeared in the system, including already present ones.
// Disconnected and connected again device is reported again.
func MonitorNewDevices(ctx context.Context, stabilizationPeriod, discoveryRate time.Duration) <-chan Device {
	var devChan = make(chan Device)

	m := &monitor{
		stabilizationPeriod: stabilizationPeriod,
		fetch:               GetHandlers,
		tracked:             make(map[PhysicalID]Device),
		pending:             make(map[PhysicalID]time.Time),
	}

	go func() {
		defer close(devChan)
		log.Info("Monitor new devices engaged", logger.Debug)

		ticker := time.NewTicker(discoveryRate)
		defer ticker.Stop()

		for {
			devices, err := m.poll(time.Now())
			if err != nil {
				log.Info(fmt.Sprintf("device discovery failed: %v", err), logger.Error)
			}

			for _, d := range devices {
				log.Info(fmt.Sprintf("New device: %s", d.String()), zap.String("device_name", d.Name), logger.Debug)
				select {
				case devChan <- d:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				log.Info("Monitor new devices disengaged", logger.Debug)
				return
			case <-ticker.C:
			}
		}
	}()

	return devChan
}
