package cli

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robert-malhotra/gridbench/grid"
	"github.com/robert-malhotra/gridbench/internal/bench"
	"github.com/spf13/cast"
)

// measure runs the measure command, writing results to out and logs to errw.
func (cfg *Cfg) measure(out, errw io.Writer, args []string) error {
	log, err := cfg.logger(errw)
	if err != nil {
		return err
	}

	open, err := grid.OpenerFor(cfg.GetString("interface"))
	if err != nil {
		return err
	}
	method, err := grid.ParseMethod(cfg.GetString("method"))
	if err != nil {
		return err
	}

	var limit uint64
	if s := cfg.GetString("mem-limit"); s != "" {
		limit, err = humanize.ParseBytes(s)
		if err != nil {
			return fmt.Errorf("gridbench: mem-limit: %v", err)
		}
	}

	seed, err := cast.ToInt64E(cfg.Get("seed"))
	if err != nil {
		return fmt.Errorf("gridbench: seed: %v", err)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	log.WithField("seed", seed).Debug("seeded selection")

	files, err := bench.SelectFiles(args, cfg.GetString("directory"), cfg.GetInt("num-files"), rng)
	if err != nil {
		return err
	}

	r := bench.Runner{
		Open:      open,
		Measurer:  grid.Measurer{Method: method, Rand: rng, Log: log},
		Out:       out,
		Log:       log,
		MemLimit:  limit,
		DropCache: cfg.GetBool("drop-cache"),
		Summary:   cfg.GetBool("summary"),
	}
	_, err = r.Run(files)
	return err
}
