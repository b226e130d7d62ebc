package robot

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
)

const (
	TickInterval = 2 * time.Second

	initialBattery = 85.0
	batteryDrain   = 0.1
	batteryFloor   = 5.0

	idleTTL = 24 * time.Hour
)

// Location is a position on the mock floor plan.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Telemetry is one reading of the simulated robot.
type Telemetry struct {
	BatteryLevel float64           `json:"batteryLevel"`
	CPULoad      float64           `json:"cpuLoad"`
	MemoryUsage  float64           `json:"memoryUsage"`
	Status       enums.RobotStatus `json:"status"`
	IsActive     bool              `json:"isActive"`
	Speed        float64           `json:"speed"`
	Location     Location          `json:"location"`
}

type device struct {
	telemetry Telemetry
	lastTick  time.Time
}

// Simulator keeps one mock robot per user in memory. Readings advance by
// whole ticks elapsed since the previous read.
type Simulator struct {
	mu      sync.Mutex
	devices map[string]*device
	now     func() time.Time
	rng     *rand.Rand
}

func NewSimulator() *Simulator {
	return newSimulator(time.Now, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

func newSimulator(now func() time.Time, rng *rand.Rand) *Simulator {
	return &Simulator{devices: map[string]*device{}, now: now, rng: rng}
}

func initialTelemetry() Telemetry {
	return Telemetry{
		BatteryLevel: initialBattery,
		CPULoad:      45,
		MemoryUsage:  60,
		Status:       enums.RobotStatusActive,
		IsActive:     true,
		Speed:        3.5,
		Location:     Location{X: 125, Y: 240},
	}
}

// Read returns the current telemetry for userID.
func (s *Simulator) Read(userID string) Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.device(userID)
	s.advance(d)
	return d.telemetry
}

// Toggle flips activation and returns the new telemetry.
func (s *Simulator) Toggle(userID string) Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.device(userID)
	s.advance(d)
	d.telemetry.IsActive = !d.telemetry.IsActive
	if d.telemetry.IsActive {
		d.telemetry.Status = enums.RobotStatusActive
	} else {
		d.telemetry.Status = enums.RobotStatusInactive
		d.telemetry.Speed = 0
	}
	return d.telemetry
}

func (s *Simulator) device(userID string) *device {
	if d, ok := s.devices[userID]; ok {
		return d
	}
	now := s.now()
	for id, d := range s.devices {
		if now.Sub(d.lastTick) > idleTTL {
			delete(s.devices, id)
		}
	}
	d := &device{telemetry: initialTelemetry(), lastTick: now}
	s.devices[userID] = d
	return d
}

func (s *Simulator) advance(d *device) {
	now := s.now()
	ticks := int(now.Sub(d.lastTick) / TickInterval)
	if ticks <= 0 {
		return
	}
	d.lastTick = d.lastTick.Add(time.Duration(ticks) * TickInterval)

	t := &d.telemetry
	t.BatteryLevel = round1(math.Max(batteryFloor, t.BatteryLevel-batteryDrain*float64(ticks)))
	t.CPULoad = round1(30 + s.rng.Float64()*40)
	t.MemoryUsage = round1(50 + s.rng.Float64()*20)
	if t.IsActive {
		t.Speed = round1(2 + s.rng.Float64()*4)
	} else {
		t.Speed = 0
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
