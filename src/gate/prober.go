package gate

import (
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Prober polls the server health endpoint on a fixed interval and tracks an
// online flag the terminal reads before every scan. Transitions fire the
// onChange callback, which is where a flush gets kicked off when the link
// comes back.
type Prober struct {
	url      string
	interval time.Duration
	client   *http.Client
	online   atomic.Bool
	sched    gocron.Scheduler
	onChange func(online bool)
}

func NewProber(url string, interval time.Duration, onChange func(online bool)) *Prober {
	p := &Prober{
		url:      url,
		interval: interval,
		client: &http.Client{
			Timeout: 3 * time.Second,
		},
		onChange: onChange,
	}
	p.online.Store(true)
	return p
}

func (p *Prober) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := s.NewJob(gocron.DurationJob(p.interval), gocron.NewTask(p.Probe)); err != nil {
		return err
	}
	s.Start()
	p.sched = s
	p.Probe()
	return nil
}

func (p *Prober) Stop() {
	if p.sched != nil {
		if err := p.sched.Shutdown(); err != nil {
			log.Printf("[prober] Error shutting down scheduler: %s\n", err.Error())
		}
	}
}

// Probe performs a single health check and records the result.
func (p *Prober) Probe() {
	ok := false
	res, err := p.client.Get(p.url)
	if err == nil {
		ok = res.StatusCode == http.StatusOK
		res.Body.Close()
	}
	was := p.online.Swap(ok)
	if was != ok {
		log.Printf("[prober] Server connectivity changed: online=%v\n", ok)
		if p.onChange != nil {
			p.onChange(ok)
		}
	}
}

func (p *Prober) Online() bool {
	return p.online.Load()
}
