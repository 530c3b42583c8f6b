package monitor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"

	"bmscode-go/drivers/ltc681x"
	"bmscode-go/errcode"
	"bmscode-go/x/conv"
	"bmscode-go/x/mathx"
)

const (
	minInterval     = 50 * time.Millisecond
	maxInterval     = time.Hour
	defaultInterval = time.Second
)

type Config struct {
	Interval time.Duration // 0 -> 1s, clamped to [50ms, 1h]
	Mode     ltc681x.Mode
	// Discharge lists cells (1-based) to balance; staged before every scan.
	Discharge  []int
	ReadAux    bool
	ReadStatus bool
	// OpenWireEvery runs the open-wire diagnosis every N scans; 0 disables.
	OpenWireEvery int
}

func (c Config) withDefaults() Config {
	if c.Interval == 0 {
		c.Interval = defaultInterval
	}
	c.Interval = mathx.Clamp(c.Interval, minInterval, maxInterval)
	return c
}

// Reading is the decoded state of one IC after a scan.
type Reading struct {
	CellsMicroV []uint32
	Aux         []uint16
	Stat        ltc681x.StatusBank
	PEC         ltc681x.PECCounter
	OpenWires   []uint8
}

type Snapshot struct {
	Seq     uint32
	TSms    int64
	ICs     []Reading
	Conv    ltc681x.PollResult
	PECMask uint32 // ICs with any PEC mismatch in this scan
	Err     error  // every failure of the scan, combined
}

// Service owns the device; nothing else may drive it while Start is running.
type Service struct {
	dev  *ltc681x.Device
	cfg  Config
	sink chan<- Snapshot
	ctl  chan Config
	seq  uint32
}

func New(dev *ltc681x.Device, cfg Config, sink chan<- Snapshot) *Service {
	return &Service{
		dev:  dev,
		cfg:  cfg.withDefaults(),
		sink: sink,
		ctl:  make(chan Config, 1),
	}
}

// Reconfigure hands a new config to the running loop. Returns false when a
// previous update is still pending.
func (s *Service) Reconfigure(cfg Config) bool {
	select {
	case s.ctl <- cfg:
		return true
	default:
		return false
	}
}

// Start writes the initial configuration and runs the scan loop until ctx is
// cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.dev.WakeupSleep()
	s.dev.InitConfig()
	if err := s.dev.WriteConfig(); err != nil {
		return err
	}
	go s.serviceLoop(ctx)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context) {
	tick := time.NewTicker(s.cfg.Interval)
	defer tick.Stop()
	println("[monitor] started:", s.dev.Len(), "x", s.dev.Variant().String())

	for {
		select {
		case <-ctx.Done():
			println("[monitor] stopping")
			return
		case cfg := <-s.ctl:
			s.cfg = cfg.withDefaults()
			tick.Reset(s.cfg.Interval)
			println("[monitor] interval set to", s.cfg.Interval.String())
		case <-tick.C:
			snap := s.Scan()
			if snap.Err != nil {
				println("[monitor] scan", snap.Seq, "error:", snap.Err.Error())
			}
			select {
			case s.sink <- snap:
			default:
				println("[monitor] sink full, dropped scan", snap.Seq)
			}
		}
	}
}

// collect folds one step's error into the scan result.
func (snap *Snapshot) collect(op string, err error) {
	if err == nil {
		return
	}
	var pe *ltc681x.PECError
	if errors.As(err, &pe) {
		snap.PECMask |= pe.Mask
	}
	snap.Err = multierr.Append(snap.Err, &errcode.E{C: errcode.Of(err), Op: op, Err: err})
}

func (s *Service) convert(snap *Snapshot, op string, start func() error) bool {
	if err := start(); err != nil {
		snap.collect(op, err)
		return false
	}
	res, err := s.dev.PollADC()
	snap.Conv.Elapsed += res.Elapsed
	snap.Conv.Completed = res.Completed
	if err != nil {
		snap.collect(op, err)
		return false
	}
	if res.TimedOut() {
		snap.collect(op, errcode.Timeout)
	}
	snap.collect("wakeup", s.dev.WakeupIdle())
	return true
}

// Scan runs one full measurement cycle synchronously.
func (s *Service) Scan() Snapshot {
	d := s.dev
	cfg := s.cfg
	snap := Snapshot{Seq: s.seq, TSms: time.Now().UnixMilli()}
	s.seq++

	d.WakeupSleep()
	d.ClearDischarge()
	for _, c := range cfg.Discharge {
		d.SetDischarge(c)
	}
	snap.collect("wrcfga", d.WriteConfig())
	if d.Variant().HasConfigB() {
		snap.collect("wrcfgb", d.WriteConfigB())
	}

	if s.convert(&snap, "adcv", func() error { return d.ADCV(cfg.Mode, false, ltc681x.CellAll) }) {
		snap.collect("rdcv", d.ReadCells(0))
	}
	if cfg.ReadAux && s.convert(&snap, "adax", func() error { return d.ADAX(cfg.Mode, ltc681x.AuxAll) }) {
		snap.collect("rdaux", d.ReadAux(0))
	}
	if cfg.ReadStatus && s.convert(&snap, "adstat", func() error { return d.ADSTAT(cfg.Mode, ltc681x.StatAll) }) {
		snap.collect("rdstat", d.ReadStatus(0))
	}
	// Readings are taken before open-wire diagnosis, which leaves ADOW codes
	// in the cell bank.
	snap.ICs = make([]Reading, len(d.ICs))
	for i := range d.ICs {
		ic := &d.ICs[i]
		r := &snap.ICs[i]
		r.CellsMicroV = make([]uint32, ic.Limits.CellChannels)
		for c := range r.CellsMicroV {
			r.CellsMicroV[c] = ltc681x.CodeMicrovolts(ic.Cells.Codes[c])
		}
		if cfg.ReadAux {
			r.Aux = append([]uint16(nil), ic.Aux.Codes[:mathx.Clamp(ic.Limits.AuxChannels, 0, len(ic.Aux.Codes))]...)
		}
		r.Stat = ic.Stat
	}

	if cfg.OpenWireEvery > 0 && snap.Seq%uint32(cfg.OpenWireEvery) == 0 {
		snap.collect("openwire", d.RunOpenWireSingle())
		for i := range d.ICs {
			if d.ICs[i].OpenWire != ltc681x.NoOpenWire {
				snap.Err = multierr.Append(snap.Err, &errcode.E{C: errcode.OpenWire, Op: "openwire", Msg: "ic " + conv.Itoa(i)})
			}
			snap.ICs[i].OpenWires = append([]uint8(nil), d.ICs[i].OpenWires...)
		}
	}
	for i := range d.ICs {
		snap.ICs[i].PEC = d.ICs[i].PEC
	}
	return snap
}
