package main

import (
	"bytes"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/cookware/cargo-cook/util/common/errors"
	"github.com/cookware/cargo-cook/util/common/fileutil"
)

const noProfile = "none"

var profileNames = []string{noProfile, "cpu", "heap", "goroutine", "threadcreate", "block", "mutex", "allocs"}

// profiler captures one runtime/pprof profile around a command run.
type profiler struct {
	name   string
	output string
	cpu    *os.File
}

var prof = &profiler{}

func addProfilingFlags(flags *pflag.FlagSet) {
	flags.StringVar(&prof.name, "profile", noProfile,
		"Name of profile to capture. One of ("+strings.Join(profileNames, "|")+")")
	flags.StringVar(&prof.output, "profile-output", "profile.pprof", "Name of the file to write the profile to")
}

func initProfiling() error {
	if err := prof.start(); err != nil {
		return err
	}
	if prof.name == noProfile {
		return nil
	}

	// ctrl-c skips PersistentPostRunE, flush here instead
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		_ = prof.flush()
		os.Exit(1)
	}()
	return nil
}

func flushProfiling() error {
	return prof.flush()
}

func (p *profiler) start() error {
	switch p.name {
	case noProfile:
		return nil
	case "cpu":
		f, err := os.Create(p.output)
		if err != nil {
			return errors.NewFileError(p.output, "create", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return err
		}
		p.cpu = f
	// sample every event, the default rates record nothing
	case "block":
		runtime.SetBlockProfileRate(1)
	case "mutex":
		runtime.SetMutexProfileFraction(1)
	default:
		if pprof.Lookup(p.name) == nil {
			return errors.NewValidationError("profile", "unknown profile '"+p.name+"'")
		}
	}
	log.Debug().Str("profile", p.name).Str("output", p.output).Msg("Profiling enabled")
	return nil
}

func (p *profiler) flush() error {
	switch p.name {
	case noProfile:
		return nil
	case "cpu":
		if p.cpu == nil {
			return nil
		}
		pprof.StopCPUProfile()
		err := p.cpu.Close()
		p.cpu = nil
		return err
	case "heap":
		runtime.GC()
	}

	profile := pprof.Lookup(p.name)
	if profile == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := profile.WriteTo(&buf, 0); err != nil {
		return err
	}
	log.Debug().Str("profile", p.name).Int("bytes", buf.Len()).Msg("Writing profile")
	return fileutil.WriteFile(p.output, buf.Bytes())
}
